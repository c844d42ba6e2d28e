package repository

import (
	"context"
	"fmt"

	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryRepository handles memory data access.
type MemoryRepository struct {
	pool *pgxpool.Pool
}

// NewMemoryRepository creates a new MemoryRepository.
func NewMemoryRepository(pool *pgxpool.Pool) *MemoryRepository {
	return &MemoryRepository{pool: pool}
}

// Create inserts a memory and its media rows in one transaction. The
// caller guarantees at least one media entry.
func (r *MemoryRepository) Create(ctx context.Context, m *model.Memory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO memories (title, description, school_name, school_year,
			school_class, batch, uploader_email, is_public)
		 VALUES ($1, $2, $3, $4, $5, $6, lower($7), $8)
		 RETURNING id, created_at, updated_at`,
		m.Title, m.Description, m.SchoolName, m.SchoolYear,
		m.SchoolClass, m.Batch, m.UploaderEmail, m.IsPublic,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return err
	}

	for i, media := range m.Media {
		_, err = tx.Exec(ctx,
			`INSERT INTO memory_media (memory_id, url, filename, mimetype, size_bytes, position)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			m.ID, media.URL, media.Filename, media.MimeType, media.Size, i)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

const memorySelect = `
	SELECT m.id, m.title, m.description, m.school_name, m.school_year,
	       m.school_class, m.batch, m.uploader_email, m.is_public,
	       m.created_at, m.updated_at,
	       COALESCE(u.name, '') AS uploader_name,
	       (SELECT count(*) FROM memory_likes l WHERE l.memory_id = m.id) AS like_count,
	       (SELECT count(*) FROM comments c WHERE c.memory_id = m.id) AS comment_count,
	       EXISTS (SELECT 1 FROM memory_likes l
	               WHERE l.memory_id = m.id AND l.user_email = lower($1)) AS is_liked
	FROM memories m
	LEFT JOIN users u ON lower(u.email) = m.uploader_email`

// GetByID retrieves a single memory with its media, counts, and whether
// the viewer has liked it. viewer may be empty for anonymous reads.
func (r *MemoryRepository) GetByID(ctx context.Context, id int, viewer string) (*model.Memory, error) {
	row := r.pool.QueryRow(ctx, memorySelect+` WHERE m.id = $2`, viewer, id)
	m, err := scanMemory(row)
	if err != nil {
		return nil, err
	}
	if err := r.attachMedia(ctx, []*model.Memory{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns a page of memories plus the total count. An unfiltered
// query is the public feed and excludes private memories; a school or year
// filter is a search and includes them.
func (r *MemoryRepository) List(ctx context.Context, q model.MemoryQuery, viewer string) ([]model.Memory, int, error) {
	where := ``
	countWhere := ``
	args := []any{viewer}
	countArgs := []any{}

	if q.IsSearch() {
		if q.School != "" {
			args = append(args, q.School)
			countArgs = append(countArgs, q.School)
			where += fmt.Sprintf(` AND m.school_name ILIKE '%%' || $%d || '%%'`, len(args))
			countWhere += fmt.Sprintf(` AND school_name ILIKE '%%' || $%d || '%%'`, len(countArgs))
		}
		if q.Year != 0 {
			args = append(args, q.Year)
			countArgs = append(countArgs, q.Year)
			where += fmt.Sprintf(` AND m.school_year = $%d`, len(args))
			countWhere += fmt.Sprintf(` AND school_year = $%d`, len(countArgs))
		}
	} else {
		// Plain feed: the privacy flag applies.
		where += ` AND m.is_public`
		countWhere += ` AND is_public`
	}

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM memories WHERE TRUE`+countWhere, countArgs...,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, q.PerPage, (q.Page-1)*q.PerPage)
	rows, err := r.pool.Query(ctx,
		memorySelect+` WHERE TRUE`+where+
			fmt.Sprintf(` ORDER BY m.created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var memories []model.Memory
	var refs []*model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, 0, err
		}
		memories = append(memories, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range memories {
		refs = append(refs, &memories[i])
	}
	if err := r.attachMedia(ctx, refs); err != nil {
		return nil, 0, err
	}
	return memories, total, nil
}

// Update modifies a memory's title and description.
func (r *MemoryRepository) Update(ctx context.Context, id int, title, description string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE memories SET title = $1, description = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $3`,
		title, description, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a memory. Media, likes and comments cascade.
func (r *MemoryRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM memories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MediaURLs returns the blob URLs attached to a memory, for cleanup.
func (r *MemoryRepository) MediaURLs(ctx context.Context, id int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT url FROM memory_media WHERE memory_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// ToggleLike removes the viewer's like if present, otherwise adds it, and
// returns the new state plus count. Runs in one transaction; the primary
// key on (memory_id, user_email) makes concurrent double-toggles safe.
func (r *MemoryRepository) ToggleLike(ctx context.Context, id int, email string) (*model.LikeResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM memories WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, pgx.ErrNoRows
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM memory_likes WHERE memory_id = $1 AND user_email = lower($2)`, id, email)
	if err != nil {
		return nil, err
	}

	res := &model.LikeResult{}
	if tag.RowsAffected() == 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO memory_likes (memory_id, user_email) VALUES ($1, lower($2))
			 ON CONFLICT DO NOTHING`, id, email)
		if err != nil {
			return nil, err
		}
		res.IsLiked = true
	}

	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM memory_likes WHERE memory_id = $1`, id).Scan(&res.LikeCount); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}

// Count returns the total number of memories.
func (r *MemoryRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM memories`).Scan(&n)
	return n, err
}

func (r *MemoryRepository) attachMedia(ctx context.Context, memories []*model.Memory) error {
	if len(memories) == 0 {
		return nil
	}
	ids := make([]int, 0, len(memories))
	byID := make(map[int]*model.Memory, len(memories))
	for _, m := range memories {
		ids = append(ids, m.ID)
		byID[m.ID] = m
	}

	rows, err := r.pool.Query(ctx,
		`SELECT memory_id, url, filename, mimetype, size_bytes
		 FROM memory_media WHERE memory_id = ANY($1) ORDER BY memory_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var memoryID int
		var media model.Media
		if err := rows.Scan(&memoryID, &media.URL, &media.Filename, &media.MimeType, &media.Size); err != nil {
			return err
		}
		if m, ok := byID[memoryID]; ok {
			m.Media = append(m.Media, media)
		}
	}
	return rows.Err()
}

func scanMemory(row rowScanner) (*model.Memory, error) {
	m := &model.Memory{}
	err := row.Scan(
		&m.ID, &m.Title, &m.Description, &m.SchoolName, &m.SchoolYear,
		&m.SchoolClass, &m.Batch, &m.UploaderEmail, &m.IsPublic,
		&m.CreatedAt, &m.UpdatedAt, &m.UploaderName,
		&m.LikeCount, &m.CommentCount, &m.IsLiked,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

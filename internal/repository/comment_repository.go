package repository

import (
	"context"

	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepository handles comment data access. The comments table is the
// single source of truth; counts on memories are derived from it.
type CommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create inserts a comment and returns it with the author's current name
// and avatar.
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO comments (memory_id, user_email, body)
		 VALUES ($1, lower($2), $3)
		 RETURNING id, created_at,
		   COALESCE((SELECT name FROM users u WHERE lower(u.email) = lower($2)), ''),
		   COALESCE((SELECT avatar_url FROM users u WHERE lower(u.email) = lower($2)), '')`,
		c.MemoryID, c.UserEmail, c.Text,
	).Scan(&c.ID, &c.CreatedAt, &c.UserName, &c.UserAvatar)
}

// ListByMemory returns a memory's comments oldest first.
func (r *CommentRepository) ListByMemory(ctx context.Context, memoryID int) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.memory_id, c.user_email, c.body, c.created_at,
		        COALESCE(u.name, ''), COALESCE(u.avatar_url, '')
		 FROM comments c
		 LEFT JOIN users u ON lower(u.email) = c.user_email
		 WHERE c.memory_id = $1
		 ORDER BY c.created_at ASC, c.id ASC`, memoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		err := rows.Scan(&c.ID, &c.MemoryID, &c.UserEmail, &c.Text,
			&c.CreatedAt, &c.UserName, &c.UserAvatar)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BlobUpload is one ledger row for a blob written to the object store.
type BlobUpload struct {
	ID            int
	PublicID      string
	URL           string
	UploaderEmail string
	Status        string
	CreatedAt     time.Time
}

// BlobUploadRepository tracks every blob written to the object store so
// orphans from failed memory inserts can be reaped later.
type BlobUploadRepository struct {
	pool *pgxpool.Pool
}

// NewBlobUploadRepository creates a new BlobUploadRepository.
func NewBlobUploadRepository(pool *pgxpool.Pool) *BlobUploadRepository {
	return &BlobUploadRepository{pool: pool}
}

// Create records a freshly uploaded blob as pending.
func (r *BlobUploadRepository) Create(ctx context.Context, publicID, url, uploaderEmail string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO blob_uploads (public_id, url, uploader_email)
		 VALUES ($1, $2, lower($3))`,
		publicID, url, uploaderEmail)
	return err
}

// MarkAttached flips the rows for the given URLs to attached once the
// owning memory row exists.
func (r *BlobUploadRepository) MarkAttached(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE blob_uploads SET status = 'attached'
		 WHERE url = ANY($1) AND status = 'pending'`, urls)
	return err
}

// MarkDeleted records that the blob behind publicID no longer exists in
// the object store.
func (r *BlobUploadRepository) MarkDeleted(ctx context.Context, publicID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE blob_uploads SET status = 'deleted' WHERE public_id = $1`, publicID)
	return err
}

// PublicIDsForURLs resolves store URLs back to their public IDs, used when
// a memory is deleted and its blobs must be queued for removal.
func (r *BlobUploadRepository) PublicIDsForURLs(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT public_id FROM blob_uploads
		 WHERE url = ANY($1) AND status <> 'deleted'`, urls)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// StalePending returns blobs that stayed pending longer than maxAge. Their
// memory insert either failed or never happened.
func (r *BlobUploadRepository) StalePending(ctx context.Context, maxAge time.Duration, limit int) ([]BlobUpload, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, public_id, url, uploader_email, status, created_at
		 FROM blob_uploads
		 WHERE status = 'pending' AND created_at < $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		time.Now().Add(-maxAge), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uploads []BlobUpload
	for rows.Next() {
		var b BlobUpload
		err := rows.Scan(&b.ID, &b.PublicID, &b.URL, &b.UploaderEmail, &b.Status, &b.CreatedAt)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, b)
	}
	return uploads, rows.Err()
}

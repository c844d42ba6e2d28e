package repository

import (
	"context"

	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles user account data access.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Upsert records a user seen through the identity provider, refreshing the
// display name and avatar on every login.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) error {
	var hash *string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, name, avatar_url)
		 VALUES (lower($1), $2, $3)
		 ON CONFLICT (lower(email)) DO UPDATE
		 SET name = EXCLUDED.name, avatar_url = EXCLUDED.avatar_url,
		     updated_at = CURRENT_TIMESTAMP
		 RETURNING id, email, password_hash, created_at, updated_at`,
		u.Email, u.Name, u.AvatarURL,
	).Scan(&u.ID, &u.Email, &hash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return err
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	return nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	var hash *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, avatar_url, password_hash, created_at, updated_at
		 FROM users WHERE lower(email) = lower($1)`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &hash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if hash != nil {
		u.PasswordHash = *hash
	}
	return u, nil
}

// SetPassword stores a bcrypt hash for a locally seeded account, creating
// the account if needed. Used by cmd/seed-admin.
func (r *UserRepository) SetPassword(ctx context.Context, email, name, hash string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (email, name, password_hash)
		 VALUES (lower($1), $2, $3)
		 ON CONFLICT (lower(email)) DO UPDATE
		 SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash,
		     updated_at = CURRENT_TIMESTAMP`,
		email, name, hash)
	return err
}

package repository

import (
	"context"

	"github.com/batchbook/batchbook-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository aggregates counts for the admin dashboard.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Collect gathers the dashboard counts in a single round trip.
func (r *StatsRepository) Collect(ctx context.Context) (*model.Statistics, error) {
	stats := &model.Statistics{}
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM institutes),
			(SELECT count(*) FROM institutes WHERE verification_status = 'approved'),
			(SELECT count(*) FROM institutes WHERE verification_status = 'pending'),
			(SELECT count(*) FROM staff),
			(SELECT count(*) FROM staff
			 WHERE verification_status IN ('auto_verified', 'manually_verified')),
			(SELECT count(*) FROM memories)`,
	).Scan(
		&stats.Institutes.Total,
		&stats.Institutes.Approved,
		&stats.Institutes.Pending,
		&stats.Staff.Total,
		&stats.Staff.Verified,
		&stats.Memories.Total,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

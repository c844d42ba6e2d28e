package service

import (
	"context"

	"github.com/batchbook/batchbook-backend/internal/model"
)

type statsCollector interface {
	Collect(ctx context.Context) (*model.Statistics, error)
}

// StatsService serves the admin dashboard aggregates.
type StatsService struct {
	repo statsCollector
}

// NewStatsService creates a new StatsService.
func NewStatsService(repo statsCollector) *StatsService {
	return &StatsService{repo: repo}
}

// Statistics returns platform-wide counts for the admin dashboard.
func (s *StatsService) Statistics(ctx context.Context) (*model.Statistics, error) {
	return s.repo.Collect(ctx)
}

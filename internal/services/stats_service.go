package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/todoboard/backend/internal/models"
	"go.uber.org/zap"
)

const dashboardStatsCacheKey = "stats:dashboard"

// ErrCacheMiss is returned by a Cache when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

// Cache stores serialized values with a time to live
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// StatsRepository is the interface that wraps the dashboard aggregation queries
type StatsRepository interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// statsService implements StatsService
type statsService struct {
	repo   StatsRepository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewStatsService creates a new dashboard statistics service.
// A nil cache or a zero ttl disables caching.
func NewStatsService(repo StatsRepository, cache Cache, ttl time.Duration, logger *zap.Logger) *statsService {
	return &statsService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetDashboardStats returns the dashboard statistics, served from the cache when fresh.
// Cache failures are logged and never fail the request.
func (s *statsService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	if s.cachingEnabled() {
		data, err := s.cache.Get(ctx, dashboardStatsCacheKey)
		switch {
		case err == nil:
			var stats models.DashboardStats
			if err := json.Unmarshal(data, &stats); err == nil {
				return &stats, nil
			}
			s.logger.Warn("discarding unreadable cached stats")
		case !errors.Is(err, ErrCacheMiss):
			s.logger.Warn("failed to read stats cache", zap.Error(err))
		}
	}

	stats, err := s.repo.GetDashboardStats(ctx)
	if err != nil {
		return nil, err
	}

	if s.cachingEnabled() {
		data, err := json.Marshal(stats)
		if err == nil {
			err = s.cache.Set(ctx, dashboardStatsCacheKey, data, s.ttl)
		}
		if err != nil {
			s.logger.Warn("failed to write stats cache", zap.Error(err))
		}
	}

	return stats, nil
}

func (s *statsService) cachingEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

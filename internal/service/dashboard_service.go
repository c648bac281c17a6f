package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nexlearn/campus-api/internal/models"
	appErrors "github.com/nexlearn/campus-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

// summaryInvalidator is implemented by DashboardService; services that mutate
// the aggregates it reports drop the cached summary after a write.
type summaryInvalidator interface {
	Invalidate(ctx context.Context)
}

type dashboardRepository interface {
	Summary(ctx context.Context, now time.Time) (*models.DashboardSummary, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// DashboardService serves the admin dashboard summary, cached in Redis for a
// short TTL since the aggregates are expensive.
type DashboardService struct {
	repo   dashboardRepository
	cache  dashboardCache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs the dashboard service. A nil cache disables
// caching.
func NewDashboardService(repo dashboardRepository, cache dashboardCache, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Summary returns the dashboard aggregates, preferring the cached copy.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	if s.cache != nil {
		var cached models.DashboardSummary
		err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	summary, err := s.repo.Summary(ctx, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard summary")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

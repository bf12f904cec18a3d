package usecase

import (
	"context"
	"errors"
	"time"

	"cinebook/internal/data/repository"
	"cinebook/internal/dto/response"
	"cinebook/pkg/cache"

	"go.uber.org/zap"
)

const (
	analyticsCacheKey = "analytics:revenue"
	analyticsCacheTTL = 60 * time.Second
)

type AnalyticsService interface {
	GetAnalytics(ctx context.Context) (*response.AnalyticsResponse, error)
}

type analyticsService struct {
	repo  *repository.Repository
	cache *cache.Cache
	log   *zap.Logger
}

// NewAnalyticsService works with a nil cache; every call then hits the store.
func NewAnalyticsService(repo *repository.Repository, c *cache.Cache, log *zap.Logger) AnalyticsService {
	return &analyticsService{
		repo:  repo,
		cache: c,
		log:   log.With(zap.String("service", "analytics")),
	}
}

func (s *analyticsService) GetAnalytics(ctx context.Context) (*response.AnalyticsResponse, error) {
	var cached response.AnalyticsResponse
	err := s.cache.Get(ctx, analyticsCacheKey, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("Analytics cache read failed", zap.Error(err))
	}

	rows, err := s.repo.Booking.RevenueByMovie(ctx)
	if err != nil {
		return nil, err
	}
	out := response.AnalyticsFromRevenue(rows)

	if err := s.cache.Set(ctx, analyticsCacheKey, out, analyticsCacheTTL); err != nil {
		s.log.Warn("Analytics cache write failed", zap.Error(err))
	}
	return &out, nil
}

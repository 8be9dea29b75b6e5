package services

import (
	"fmt"
	"time"

	"task-collab/backend/internal/cache"
	"task-collab/backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

const analyticsCacheTTL = 5 * time.Minute

// CachedAnalyticsService caches the aggregate projections per principal.
// Keys follow "analytics:<projection>:<user>" so task mutations can
// invalidate them by pattern. Export is a full dump and stays uncached.
type CachedAnalyticsService struct {
	analytics AnalyticsService
	cache     *cache.RedisCache
}

func NewCachedAnalyticsService(analytics AnalyticsService, cacheInstance *cache.RedisCache) *CachedAnalyticsService {
	return &CachedAnalyticsService{analytics: analytics, cache: cacheInstance}
}

func (s *CachedAnalyticsService) Overview(db *gorm.DB, principalID uuid.UUID) (Overview, error) {
	key := fmt.Sprintf("analytics:overview:%s", principalID)

	var cached Overview
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	overview, err := s.analytics.Overview(db, principalID)
	if err != nil {
		return overview, err
	}
	s.cache.Set(key, overview, analyticsCacheTTL)
	return overview, nil
}

func (s *CachedAnalyticsService) Performance(db *gorm.DB, principalID uuid.UUID) (map[string]int64, error) {
	key := fmt.Sprintf("analytics:performance:%s", principalID)

	var cached map[string]int64
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	performance, err := s.analytics.Performance(db, principalID)
	if err != nil {
		return performance, err
	}
	s.cache.Set(key, performance, analyticsCacheTTL)
	return performance, nil
}

func (s *CachedAnalyticsService) Trends(db *gorm.DB, principalID uuid.UUID) ([]TrendPoint, error) {
	key := fmt.Sprintf("analytics:trends:%s", principalID)

	var cached []TrendPoint
	if err := s.cache.Get(key, &cached); err == nil {
		return cached, nil
	}

	trends, err := s.analytics.Trends(db, principalID)
	if err != nil {
		return trends, err
	}
	s.cache.Set(key, trends, analyticsCacheTTL)
	return trends, nil
}

func (s *CachedAnalyticsService) Export(db *gorm.DB, principalID uuid.UUID) ([]models.Task, error) {
	return s.analytics.Export(db, principalID)
}

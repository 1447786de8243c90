package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/models"
	appErrors "github.com/atelierhq/planner-api/pkg/errors"
)

const (
	conflictCachePrefix = "planner:conflicts"
	slotCachePrefix     = "planner:slots"
)

type conflictWorkshopReader interface {
	LocationConflicts(ctx context.Context, from, to time.Time) ([]models.LocationConflictRow, error)
}

type conflictAssignmentReader interface {
	PersonConflicts(ctx context.Context, from, to time.Time) ([]models.PersonConflictRow, error)
}

type advisoryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ConflictService is the post-hoc double-booking audit. Per-item validation
// cannot prevent races between concurrent writers, so this scanner is the
// safety net over persisted data.
type ConflictService struct {
	workshops   conflictWorkshopReader
	assignments conflictAssignmentReader
	cache       advisoryCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewConflictService instantiates ConflictService.
func NewConflictService(workshops conflictWorkshopReader, assignments conflictAssignmentReader, cache advisoryCache, cacheTTL time.Duration, logger *zap.Logger) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{
		workshops:   workshops,
		assignments: assignments,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// FindConflicts reports every double-booked venue date and person date in
// the period. The result only depends on persisted rows, so repeated calls
// without intervening writes return identical output.
func (s *ConflictService) FindConflicts(ctx context.Context, from, to time.Time) ([]models.Conflict, error) {
	cacheKey := fmt.Sprintf("%s:%s:%s", conflictCachePrefix, from.Format(dateLayout), to.Format(dateLayout))
	if s.cache != nil {
		var cached []models.Conflict
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("conflict cache read failed", zap.Error(err))
		}
	}

	conflicts := make([]models.Conflict, 0)

	locationRows, err := s.workshops.LocationConflicts(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan location conflicts")
	}
	for _, row := range locationRows {
		conflicts = append(conflicts, models.Conflict{
			Type:       models.ConflictLocation,
			LocationID: row.LocationID,
			Date:       row.StartDate,
			Count:      row.Count,
			Message:    fmt.Sprintf("multiple workshops (%d) at the same location on the same date", row.Count),
		})
	}

	personRows, err := s.assignments.PersonConflicts(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan person conflicts")
	}
	for _, row := range personRows {
		conflicts = append(conflicts, models.Conflict{
			Type:     models.ConflictPerson,
			PersonID: row.PersonID,
			Date:     row.StartDate,
			Count:    row.Count,
			Message:  fmt.Sprintf("person assigned to multiple workshops (%d) on the same date", row.Count),
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, conflicts, s.cacheTTL); err != nil {
			s.logger.Warn("conflict cache write failed", zap.Error(err))
		}
	}

	return conflicts, nil
}

// InvalidateAdvisoryCaches drops cached conflict scans and slot searches.
// Called after any workshop or assignment write.
func InvalidateAdvisoryCaches(ctx context.Context, cache advisoryCache, logger *zap.Logger) {
	if cache == nil {
		return
	}
	for _, prefix := range []string{conflictCachePrefix, slotCachePrefix} {
		if err := cache.DeleteByPattern(ctx, prefix+":*"); err != nil && logger != nil {
			logger.Warn("advisory cache invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}

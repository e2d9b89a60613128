package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ruralcare/telehealth/internal/platform/cache"
)

// cachedRepo serves specialist assignments from a cache. Candidates always
// come from the store.
type cachedRepo struct {
	Repository
	cache  cache.Provider
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedRepo wraps repo so assignment lookups are cached for ttl. A
// non-positive ttl disables caching.
func NewCachedRepo(repo Repository, provider cache.Provider, ttl time.Duration, logger zerolog.Logger) Repository {
	if provider == nil || ttl <= 0 {
		return repo
	}
	return &cachedRepo{
		Repository: repo,
		cache:      provider,
		ttl:        ttl,
		logger:     logger.With().Str("component", "queue_cache").Logger(),
	}
}

func assignmentKey(specialistID uuid.UUID) string {
	return "assignments:" + specialistID.String()
}

func (r *cachedRepo) ActiveHealthCenters(ctx context.Context, specialistID uuid.UUID) ([]uuid.UUID, error) {
	key := assignmentKey(specialistID)

	var ids []uuid.UUID
	err := cache.GetJSON(ctx, r.cache, key, &ids)
	if err == nil {
		return ids, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn().Err(err).Str("key", key).Msg("assignment cache read failed")
	}

	ids, err = r.Repository.ActiveHealthCenters(ctx, specialistID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	if err := cache.SetJSON(ctx, r.cache, key, ids, r.ttl); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("assignment cache write failed")
	}
	return ids, nil
}

// InvalidateAssignments drops the cached assignment list for a specialist so
// the next queue build reads assignments from the store.
func InvalidateAssignments(ctx context.Context, provider cache.Provider, specialistID uuid.UUID) error {
	return provider.Del(ctx, assignmentKey(specialistID))
}

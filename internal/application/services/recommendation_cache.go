package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
	"github.com/zatekoja/carerouter/backend/internal/domain/providers"
	"github.com/zatekoja/carerouter/backend/internal/infrastructure/observability"
)

// RecommendationCache stores whole recommendation responses in a CacheProvider
// with a fixed TTL applied at write time.
type RecommendationCache struct {
	provider providers.CacheProvider
	ttl      time.Duration
}

// NewRecommendationCache creates a new recommendation cache
func NewRecommendationCache(provider providers.CacheProvider, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{
		provider: provider,
		ttl:      ttl,
	}
}

// Get returns the cached response for key. Missing, expired and undecodable
// entries all report ok=false.
func (c *RecommendationCache) Get(ctx context.Context, key string) (*entities.RecommendResponse, bool) {
	if c == nil || c.provider == nil {
		return nil, false
	}

	data, err := c.provider.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("cache_key", key).Msg("recommendation cache read failed")
		}
		return nil, false
	}

	var resp entities.RecommendResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("cache_key", key).Msg("discarding undecodable cache entry")
		_ = c.provider.Delete(ctx, key)
		return nil, false
	}
	return &resp, true
}

// Set stores resp under key, overwriting any prior entry. Write failures are
// logged and swallowed since the cache only saves recomputation.
func (c *RecommendationCache) Set(ctx context.Context, key string, resp *entities.RecommendResponse) {
	if c == nil || c.provider == nil || resp == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("cache_key", key).Msg("failed to encode recommendation for cache")
		return
	}

	seconds := int(c.ttl / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	if err := c.provider.Set(ctx, key, data, seconds); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("cache_key", key).Msg("recommendation cache write failed")
	}
}

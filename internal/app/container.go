package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/carerouter/backend/internal/adapters/cache"
	"github.com/zatekoja/carerouter/backend/internal/adapters/providers/geolocation"
	"github.com/zatekoja/carerouter/backend/internal/adapters/providers/speech"
	"github.com/zatekoja/carerouter/backend/internal/adapters/providers/waittime"
	"github.com/zatekoja/carerouter/backend/internal/api/handlers"
	"github.com/zatekoja/carerouter/backend/internal/application/services"
	"github.com/zatekoja/carerouter/backend/internal/domain/providers"
	"github.com/zatekoja/carerouter/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/carerouter/backend/internal/infrastructure/observability"
	"github.com/zatekoja/carerouter/backend/pkg/config"
	"github.com/zatekoja/carerouter/backend/pkg/retry"
)

const redisKeyPrefix = "carerouter:"

// Container holds the components built from configuration
type Container struct {
	Service      *services.RecommendationService
	HealthChecks map[string]handlers.HealthChecker

	closers []func() error
}

// New builds the recommendation service and its collaborators from cfg.
// metrics may be nil.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{HealthChecks: map[string]handlers.HealthChecker{}}

	source, err := newFacilitySource(cfg)
	if err != nil {
		return nil, err
	}

	predictor, err := newWaitPredictor(cfg)
	if err != nil {
		return nil, err
	}

	recCache, err := c.newCache(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}

	var renderer providers.SpeechRenderer
	if cfg.Speech.SpeechConfigured() {
		renderer = speech.NewElevenLabsRenderer(&cfg.Speech)
	} else {
		log.Warn().Msg("ELEVEN_API_KEY or ELEVEN_VOICE_ID not set; speech requests will fail")
	}

	c.Service = services.NewRecommendationService(source, predictor, renderer, recCache, services.RecommendationOptions{
		MaxCandidates:       cfg.Recommendation.MaxCandidates,
		CollaboratorTimeout: cfg.Recommendation.CollaboratorTimeout,
		ParallelFetch:       cfg.Recommendation.ParallelFetch,
		Metrics:             metrics,
	})

	return c, nil
}

// Close releases connections opened by New
func (c *Container) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}

func newFacilitySource(cfg *config.Config) (providers.FacilitySource, error) {
	switch cfg.Google.Source {
	case "mock":
		log.Info().Msg("using mock facility source")
		return geolocation.NewMockFacilitySource(), nil
	default:
		return geolocation.NewGoogleFacilitySourceWithOptions(geolocation.GoogleOptions{
			APIKey:                cfg.Google.APIKey,
			PreferTrafficDuration: cfg.Google.TrafficAware,
			QPS:                   cfg.Google.QPS,
			ClinicKeyword:         cfg.Google.ClinicKeyword,
			PlacesURL:             cfg.Google.PlacesURL,
			DistanceURL:           cfg.Google.DistanceURL,
			Timeout:               cfg.Google.Timeout,
		})
	}
}

func newWaitPredictor(cfg *config.Config) (*waittime.HeuristicPredictor, error) {
	if cfg.Recommendation.OccupancyFile == "" {
		return waittime.NewHeuristicPredictor(), nil
	}

	snapshots, err := waittime.LoadOccupancyFile(cfg.Recommendation.OccupancyFile)
	if err != nil {
		return nil, err
	}
	log.Info().Int("hospitals", len(snapshots)).Msg("loaded emergency department occupancy")
	return waittime.NewHeuristicPredictor(waittime.WithOccupancy(snapshots)), nil
}

func (c *Container) newCache(ctx context.Context, cfg *config.Config) (*services.RecommendationCache, error) {
	switch cfg.Cache.Backend {
	case "none":
		log.Info().Msg("recommendation cache disabled")
		return nil, nil
	case "redis":
		client, err := redis.NewClient(ctx, &cfg.Redis, retry.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("cache backend redis: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		c.HealthChecks["redis"] = client
		log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("using redis recommendation cache")
		return services.NewRecommendationCache(cache.NewRedisAdapter(client.Client(), redisKeyPrefix), cfg.Cache.CacheTTL()), nil
	default:
		memory, err := cache.NewMemoryAdapter(cfg.Cache.MaxEntries)
		if err != nil {
			return nil, err
		}
		return services.NewRecommendationCache(memory, cfg.Cache.CacheTTL()), nil
	}
}

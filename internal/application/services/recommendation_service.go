package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
	"github.com/zatekoja/carerouter/backend/internal/domain/providers"
	"github.com/zatekoja/carerouter/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carerouter/backend/pkg/errors"
)

const (
	// DefaultMaxCandidates bounds how many facilities go to the travel-time lookup
	DefaultMaxCandidates = 10

	// DefaultCollaboratorTimeout bounds each facility source and speech call
	DefaultCollaboratorTimeout = 15 * time.Second

	maxAlternatives = 5

	// Disclaimer is attached to every recommendation
	Disclaimer = "This is routing guidance only, not medical advice. If this is a life-threatening emergency, call 911 now."
)

// RecommendationOptions tunes a RecommendationService
type RecommendationOptions struct {
	MaxCandidates       int
	CollaboratorTimeout time.Duration

	// ParallelFetch runs the hospital and clinic lookups concurrently
	ParallelFetch bool

	Metrics *observability.Metrics
	Now     func() time.Time
}

// RecommendationService ranks nearby facilities by travel plus predicted wait
type RecommendationService struct {
	source    providers.FacilitySource
	predictor providers.WaitPredictor
	renderer  providers.SpeechRenderer
	cache     *RecommendationCache

	maxCandidates int
	timeout       time.Duration
	parallel      bool
	metrics       *observability.Metrics
	now           func() time.Time
}

// NewRecommendationService creates a new recommendation service. renderer and
// cache may be nil: without a renderer speech requests fail with a
// configuration error, without a cache every request is computed.
func NewRecommendationService(
	source providers.FacilitySource,
	predictor providers.WaitPredictor,
	renderer providers.SpeechRenderer,
	cache *RecommendationCache,
	opts RecommendationOptions,
) *RecommendationService {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	if opts.CollaboratorTimeout <= 0 {
		opts.CollaboratorTimeout = DefaultCollaboratorTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &RecommendationService{
		source:        source,
		predictor:     predictor,
		renderer:      renderer,
		cache:         cache,
		maxCandidates: opts.MaxCandidates,
		timeout:       opts.CollaboratorTimeout,
		parallel:      opts.ParallelFetch,
		metrics:       opts.Metrics,
		now:           opts.Now,
	}
}

// Recommend returns the facility with the lowest travel plus predicted wait,
// with up to five alternatives. The request either succeeds completely or
// fails with a typed AppError.
func (s *RecommendationService) Recommend(ctx context.Context, req entities.RecommendRequest) (*entities.RecommendResponse, error) {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.Recommend")
	defer span.End()

	req, err := NormalizeRequest(req)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordRecommendation(ctx, s.metrics, string(apperrors.TypeOf(err)), string(req.Severity))
		return nil, err
	}

	key := CacheKey(req)
	observability.SetSpanAttributes(span,
		attribute.String("recommend.severity", string(req.Severity)),
		attribute.String("recommend.mode", string(req.Mode)),
		attribute.Int("recommend.radius_m", req.RadiusMeters),
		attribute.Bool("recommend.include_tts", req.IncludeSpeech),
	)
	logger := observability.LoggerFromContext(ctx).With().
		Str("cache_key", key).
		Bool("include_tts", req.IncludeSpeech).
		Logger()

	useCache := s.cache != nil && !req.IncludeSpeech
	if useCache {
		if cached, ok := s.cache.Get(ctx, key); ok {
			observability.RecordCacheHit(ctx, s.metrics)
			observability.RecordRecommendation(ctx, s.metrics, "cache_hit", string(req.Severity))
			span.SetAttributes(attribute.Bool("recommend.cache_hit", true))
			logger.Debug().Msg("recommendation served from cache")
			return cached, nil
		}
		observability.RecordCacheMiss(ctx, s.metrics)
	}

	resp, err := s.compute(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordRecommendation(ctx, s.metrics, string(apperrors.TypeOf(err)), string(req.Severity))
		logger.Warn().Err(err).Str("error_type", string(apperrors.TypeOf(err))).Msg("recommendation failed")
		return nil, err
	}

	if useCache {
		s.cache.Set(ctx, key, resp)
	}

	observability.RecordRecommendation(ctx, s.metrics, "ok", string(req.Severity))
	logger.Info().
		Str("facility_id", resp.Recommended.Facility.ID).
		Int("total_seconds", resp.Recommended.TotalSeconds).
		Int("alternatives", len(resp.Alternatives)).
		Msg("recommendation computed")

	return resp, nil
}

func (s *RecommendationService) compute(ctx context.Context, req entities.RecommendRequest) (*entities.RecommendResponse, error) {
	candidates, err := s.gatherCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	travel, err := s.travelTimes(ctx, req, candidates)
	if err != nil {
		return nil, err
	}

	scores := s.score(candidates, travel, req.Severity)
	ranked := rank(scores)

	resp := &entities.RecommendResponse{
		Recommended:  ranked[0],
		Alternatives: ranked[1:min(len(ranked), maxAlternatives+1)],
		SpokenText:   SpokenSummary(ranked[0]),
		Disclaimer:   Disclaimer,
		GeneratedAt:  s.now().UTC(),
	}

	if req.IncludeSpeech {
		audio, err := s.synthesize(ctx, resp.SpokenText)
		if err != nil {
			return nil, err
		}
		resp.Audio = audio
	}

	return resp, nil
}

// gatherCandidates fetches hospitals, plus clinics for low severity, and
// truncates the concatenation. Hospitals always precede clinics.
func (s *RecommendationService) gatherCandidates(ctx context.Context, req entities.RecommendRequest) ([]*entities.Facility, error) {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.gatherCandidates")
	defer span.End()

	kinds := []entities.FacilityKind{entities.FacilityKindHospital}
	if req.Severity == entities.SeverityLow {
		kinds = append(kinds, entities.FacilityKindClinic)
	}

	results := make([][]*entities.Facility, len(kinds))
	fetch := func(ctx context.Context, i int) error {
		facilities, err := s.nearby(ctx, req, kinds[i])
		if err != nil {
			return err
		}
		results[i] = facilities
		return nil
	}

	if s.parallel && len(kinds) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i := range kinds {
			g.Go(func() error { return fetch(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
	} else {
		for i := range kinds {
			if err := fetch(ctx, i); err != nil {
				observability.RecordError(span, err)
				return nil, err
			}
		}
	}

	var candidates []*entities.Facility
	for _, facilities := range results {
		candidates = append(candidates, facilities...)
	}
	if len(candidates) > s.maxCandidates {
		candidates = candidates[:s.maxCandidates]
	}
	span.SetAttributes(attribute.Int("recommend.candidates", len(candidates)))

	if len(candidates) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no facilities found within %d m", req.RadiusMeters))
	}
	return candidates, nil
}

func (s *RecommendationService) nearby(ctx context.Context, req entities.RecommendRequest, kind entities.FacilityKind) ([]*entities.Facility, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	facilities, err := s.source.Nearby(ctx, req.Location, req.RadiusMeters, kind)
	observability.RecordCollaboratorMetric(ctx, s.metrics, "nearby_"+string(kind), time.Since(start), err)
	if err != nil {
		return nil, collaboratorError(fmt.Sprintf("%s search failed", kind), err)
	}
	return facilities, nil
}

// travelTimes returns one travel duration in seconds per candidate. Candidates
// the source cannot route to get UnreachableSeconds.
func (s *RecommendationService) travelTimes(ctx context.Context, req entities.RecommendRequest, candidates []*entities.Facility) ([]int, error) {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.travelTimes")
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	estimates, err := s.source.TravelTimes(callCtx, req.Location, candidates, req.Mode)
	observability.RecordCollaboratorMetric(ctx, s.metrics, "travel_times", time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		if errors.Is(err, providers.ErrNoTravelRows) {
			return nil, apperrors.NewNoTravelDataError("travel time source returned no results", err)
		}
		return nil, collaboratorError("travel time lookup failed", err)
	}
	if len(estimates) == 0 {
		return nil, apperrors.NewNoTravelDataError("travel time source returned no results", providers.ErrNoTravelRows)
	}
	if len(estimates) != len(candidates) {
		return nil, apperrors.NewInternalError(
			fmt.Sprintf("travel time source returned %d estimates for %d facilities", len(estimates), len(candidates)), nil)
	}

	travel := make([]int, len(estimates))
	reachable := 0
	for i, est := range estimates {
		if !est.Reachable || est.Seconds < 0 {
			travel[i] = entities.UnreachableSeconds
			continue
		}
		travel[i] = est.Seconds
		reachable++
	}
	span.SetAttributes(attribute.Int("recommend.reachable", reachable))
	return travel, nil
}

func (s *RecommendationService) score(candidates []*entities.Facility, travel []int, severity entities.Severity) []entities.FacilityScore {
	scores := make([]entities.FacilityScore, len(candidates))
	for i, f := range candidates {
		wait := s.predictor.PredictWait(f, severity)
		if wait < 0 {
			wait = 0
		}
		waitSeconds := int(wait / time.Second)
		scores[i] = entities.FacilityScore{
			Facility:             *f,
			TravelSeconds:        travel[i],
			PredictedWaitSeconds: waitSeconds,
			TotalSeconds:         travel[i] + waitSeconds,
			Explanation:          s.predictor.Explain(f, time.Duration(travel[i])*time.Second, wait),
		}
	}
	return scores
}

// rank orders scores by total duration. Ties keep the source order.
func rank(scores []entities.FacilityScore) []entities.FacilityScore {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].TotalSeconds < scores[j].TotalSeconds
	})
	return scores
}

func (s *RecommendationService) synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "RecommendationService.synthesize")
	defer span.End()

	if s.renderer == nil {
		err := apperrors.NewConfigurationError("speech synthesis is not configured")
		observability.RecordError(span, err)
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	audio, err := s.renderer.Synthesize(callCtx, text)
	observability.RecordCollaboratorMetric(ctx, s.metrics, "synthesize", time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		return nil, collaboratorError("speech synthesis failed", err)
	}
	span.SetAttributes(attribute.Int("recommend.audio_bytes", len(audio)))
	return audio, nil
}

// SpokenSummary is the one-sentence summary read to the caller
func SpokenSummary(top entities.FacilityScore) string {
	if !top.Reachable() {
		return fmt.Sprintf("The closest facility is %s, %s. Travel time is unavailable.", top.Facility.Name, top.Facility.Address)
	}
	minutes := int(math.Round(float64(top.TravelSeconds) / 60))
	if minutes < 1 {
		minutes = 1
	}
	unit := "minutes"
	if minutes == 1 {
		unit = "minute"
	}
	return fmt.Sprintf("The closest facility is %s, %s, about %d %s away.", top.Facility.Name, top.Facility.Address, minutes, unit)
}

// collaboratorError keeps typed errors from a collaborator and wraps the rest
// as external failures.
func collaboratorError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewExternalError(message, err)
}

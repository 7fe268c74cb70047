package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carerouter/backend/internal/adapters/cache"
	"github.com/zatekoja/carerouter/backend/internal/application/services"
	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
	"github.com/zatekoja/carerouter/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/carerouter/backend/pkg/errors"
)

// Mocks

type MockFacilitySource struct {
	mock.Mock
}

func (m *MockFacilitySource) Nearby(ctx context.Context, center entities.Location, radiusMeters int, kind entities.FacilityKind) ([]*entities.Facility, error) {
	args := m.Called(ctx, center, radiusMeters, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Facility), args.Error(1)
}

func (m *MockFacilitySource) TravelTimes(ctx context.Context, origin entities.Location, facilities []*entities.Facility, mode entities.TravelMode) ([]providers.TravelEstimate, error) {
	args := m.Called(ctx, origin, facilities, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]providers.TravelEstimate), args.Error(1)
}

// tableWaitPredictor returns fixed waits by facility id
type tableWaitPredictor struct {
	waits map[string]time.Duration
}

func (p *tableWaitPredictor) PredictWait(f *entities.Facility, severity entities.Severity) time.Duration {
	return p.waits[f.ID]
}

func (p *tableWaitPredictor) Explain(f *entities.Facility, travel, wait time.Duration) string {
	return fmt.Sprintf("%s: %s travel + %s wait", f.ID, travel, wait)
}

type MockSpeechRenderer struct {
	mock.Mock
}

func (m *MockSpeechRenderer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Helpers

var montreal = entities.Location{Latitude: 45.5017, Longitude: -73.5673}

func hospital(id string) *entities.Facility {
	return &entities.Facility{
		ID:       id,
		Name:     "Hospital " + id,
		Address:  id + " Main St",
		Location: entities.Location{Latitude: 45.5, Longitude: -73.56},
		Kind:     entities.FacilityKindHospital,
	}
}

func clinic(id string) *entities.Facility {
	f := hospital(id)
	f.Name = "Clinic " + id
	f.Kind = entities.FacilityKindClinic
	return f
}

func reachable(seconds ...int) []providers.TravelEstimate {
	out := make([]providers.TravelEstimate, len(seconds))
	for i, s := range seconds {
		out[i] = providers.TravelEstimate{Seconds: s, Reachable: true}
	}
	return out
}

type fixture struct {
	source    *MockFacilitySource
	predictor *tableWaitPredictor
	renderer  *MockSpeechRenderer
	clock     *fakeClock
	service   *services.RecommendationService
}

func newFixture(t *testing.T, opts services.RecommendationOptions) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	memory, err := cache.NewMemoryAdapterWithClock(100, clock.Now)
	require.NoError(t, err)

	f := &fixture{
		source:    new(MockFacilitySource),
		predictor: &tableWaitPredictor{waits: map[string]time.Duration{}},
		renderer:  new(MockSpeechRenderer),
		clock:     clock,
	}
	opts.Now = clock.Now
	f.service = services.NewRecommendationService(
		f.source,
		f.predictor,
		f.renderer,
		services.NewRecommendationCache(memory, 5*time.Minute),
		opts,
	)
	return f
}

func (f *fixture) expectHospitals(facilities []*entities.Facility, travel []providers.TravelEstimate) {
	f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).Return(facilities, nil)
	f.source.On("TravelTimes", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(travel, nil)
}

func medium(loc entities.Location) entities.RecommendRequest {
	return entities.RecommendRequest{Location: loc, Severity: entities.SeverityMedium}
}

// Tests

func TestRecommend_TotalDurationScenario(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.expectHospitals([]*entities.Facility{hospital("A"), hospital("B")}, reachable(300, 120))
	f.predictor.waits["A"] = 60 * time.Second
	f.predictor.waits["B"] = 600 * time.Second

	resp, err := f.service.Recommend(context.Background(), medium(montreal))
	require.NoError(t, err)

	assert.Equal(t, "A", resp.Recommended.Facility.ID)
	assert.Equal(t, 300, resp.Recommended.TravelSeconds)
	assert.Equal(t, 60, resp.Recommended.PredictedWaitSeconds)
	assert.Equal(t, 360, resp.Recommended.TotalSeconds)
	require.Len(t, resp.Alternatives, 1)
	assert.Equal(t, "B", resp.Alternatives[0].Facility.ID)
	assert.Equal(t, 720, resp.Alternatives[0].TotalSeconds)

	assert.Equal(t, "The closest facility is Hospital A, A Main St, about 5 minutes away.", resp.SpokenText)
	assert.Equal(t, "A: 5m0s travel + 1m0s wait", resp.Recommended.Explanation)
	assert.Equal(t, services.Disclaimer, resp.Disclaimer)
	assert.Equal(t, f.clock.Now(), resp.GeneratedAt)
	assert.Nil(t, resp.Audio)
}

func TestRecommend_CacheHitSkipsFacilitySource(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.expectHospitals([]*entities.Facility{hospital("A"), hospital("B")}, reachable(300, 120))

	first, err := f.service.Recommend(context.Background(), medium(montreal))
	require.NoError(t, err)

	// jitter below the rounding precision maps to the same entry
	jittered := medium(entities.Location{Latitude: montreal.Latitude + 0.00002, Longitude: montreal.Longitude - 0.00003})
	second, err := f.service.Recommend(context.Background(), jittered)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	assert.Equal(t, firstJSON, secondJSON)

	f.source.AssertNumberOfCalls(t, "Nearby", 1)
	f.source.AssertNumberOfCalls(t, "TravelTimes", 1)
}

func TestRecommend_CacheKeyDimensions(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.expectHospitals([]*entities.Facility{hospital("A")}, reachable(300))

	base := medium(montreal)
	_, err := f.service.Recommend(context.Background(), base)
	require.NoError(t, err)

	highSeverity := base
	highSeverity.Severity = entities.SeverityHigh
	transit := base
	transit.Mode = entities.TravelModeTransit
	wider := base
	wider.RadiusMeters = 10000

	for _, req := range []entities.RecommendRequest{highSeverity, transit, wider} {
		_, err := f.service.Recommend(context.Background(), req)
		require.NoError(t, err)
	}
	f.source.AssertNumberOfCalls(t, "TravelTimes", 4)
}

func TestRecommend_CacheExpiryRefetches(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.expectHospitals([]*entities.Facility{hospital("A")}, reachable(300))

	_, err := f.service.Recommend(context.Background(), medium(montreal))
	require.NoError(t, err)

	f.clock.Advance(4 * time.Minute)
	_, err = f.service.Recommend(context.Background(), medium(montreal))
	require.NoError(t, err)
	f.source.AssertNumberOfCalls(t, "Nearby", 1)

	f.clock.Advance(2 * time.Minute)
	_, err = f.service.Recommend(context.Background(), medium(montreal))
	require.NoError(t, err)
	f.source.AssertNumberOfCalls(t, "Nearby", 2)
}

func TestRecommend_ClinicsOnlyForLowSeverity(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		tests := []struct {
			severity    entities.Severity
			wantClinics bool
		}{
			{entities.SeverityLow, true},
			{entities.SeverityMedium, false},
			{entities.SeverityHigh, false},
		}
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/parallel=%v", tt.severity, parallel), func(t *testing.T) {
				f := newFixture(t, services.RecommendationOptions{ParallelFetch: parallel})
				f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
					Return([]*entities.Facility{hospital("H1"), hospital("H2")}, nil)
				f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindClinic).
					Return([]*entities.Facility{clinic("C1")}, nil).Maybe()

				travel := reachable(600, 600)
				if tt.wantClinics {
					travel = reachable(600, 600, 600)
				}
				var gotCandidates []*entities.Facility
				f.source.On("TravelTimes", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) {
						gotCandidates = args.Get(2).([]*entities.Facility)
					}).
					Return(travel, nil)

				_, err := f.service.Recommend(context.Background(), entities.RecommendRequest{Location: montreal, Severity: tt.severity})
				require.NoError(t, err)

				ids := make([]string, len(gotCandidates))
				for i, c := range gotCandidates {
					ids[i] = c.ID
				}
				if tt.wantClinics {
					assert.Equal(t, []string{"H1", "H2", "C1"}, ids)
					f.source.AssertCalled(t, "Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindClinic)
				} else {
					assert.Equal(t, []string{"H1", "H2"}, ids)
					f.source.AssertNotCalled(t, "Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindClinic)
				}
			})
		}
	}
}

func TestRecommend_TruncatesCandidates(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{MaxCandidates: 3})
	f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
		Return([]*entities.Facility{hospital("H1"), hospital("H2")}, nil)
	f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindClinic).
		Return([]*entities.Facility{clinic("C1"), clinic("C2")}, nil)
	f.source.On("TravelTimes", mock.Anything, mock.Anything, mock.MatchedBy(func(fs []*entities.Facility) bool {
		return len(fs) == 3 && fs[0].ID == "H1" && fs[1].ID == "H2" && fs[2].ID == "C1"
	}), entities.TravelModeDriving).Return(reachable(100, 200, 300), nil)

	resp, err := f.service.Recommend(context.Background(), entities.RecommendRequest{Location: montreal, Severity: entities.SeverityLow})
	require.NoError(t, err)
	assert.Len(t, resp.Alternatives, 2)
	f.source.AssertExpectations(t)
}

func TestRecommend_AtMostFiveAlternatives(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	var facilities []*entities.Facility
	var travel []int
	for i := 0; i < 8; i++ {
		facilities = append(facilities, hospital(fmt.Sprintf("H%d", i)))
		travel = append(travel, 1000-i*100)
	}
	f.expectHospitals(facilities, reachable(travel...))

	resp, err := f.service.Recommend(context.Background(), medium(montreal))
	require.NoError(t, err)

	assert.Equal(t, "H7", resp.Recommended.Facility.ID)
	require.Len(t, resp.Alternatives, 5)
	assert.Equal(t, []string{"H6", "H5", "H4", "H3", "H2"}, []string{
		resp.Alternatives[0].Facility.ID,
		resp.Alternatives[1].Facility.ID,
		resp.Alternatives[2].Facility.ID,
		resp.Alternatives[3].Facility.ID,
		resp.Alternatives[4].Facility.ID,
	})
}

func TestRecommend_RankingInvariant(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	travel := []int{900, 60, 1500, 300, 300, 2400, 45, 720, 1200, 30}
	waits := []int{0, 3000, 60, 600, 600, 0, 5400, 120, 900, 7200}

	var facilities []*entities.Facility
	totals := map[string]int{}
	for i := range travel {
		id := fmt.Sprintf("F%d", i)
		facilities = append(facilities, hospital(id))
		f.predictor.waits[id] = time.Duration(waits[i]) * time.Second
		totals[id] = travel[i] + waits[i]
	}
	f.expectHospitals(facilities, reachable(travel...))

	resp, err := f.service.Recommend(context.Background(), medium(montreal))
	require.NoError(t, err)

	selected := map[string]bool{resp.Recommended.Facility.ID: true}
	prev := resp.Recommended.TotalSeconds
	for _, alt := range resp.Alternatives {
		assert.LessOrEqual(t, prev, alt.TotalSeconds)
		prev = alt.TotalSeconds
		selected[alt.Facility.ID] = true
	}
	for id, total := range totals {
		if !selected[id] {
			assert.LessOrEqual(t, prev, total, "unselected %s ranks ahead of an alternative", id)
		}
	}

	// F3 and F4 tie at 900s; source order is kept
	var tieOrder []string
	for _, s := range append([]entities.FacilityScore{resp.Recommended}, resp.Alternatives...) {
		if s.TotalSeconds == 900 {
			tieOrder = append(tieOrder, s.Facility.ID)
		}
	}
	assert.Equal(t, []string{"F0", "F3", "F4"}, tieOrder)
}

func TestRecommend_UnreachableNeverRanksFirst(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.expectHospitals(
		[]*entities.Facility{hospital("near"), hospital("far")},
		[]providers.TravelEstimate{{Reachable: false}, {Seconds: 7200, Reachable: true}},
	)
	f.predictor.waits["far"] = 8 * time.Hour

	resp, err := f.service.Recommend(context.Background(), medium(montreal))
	require.NoError(t, err)

	assert.Equal(t, "far", resp.Recommended.Facility.ID)
	require.Len(t, resp.Alternatives, 1)
	assert.Equal(t, "near", resp.Alternatives[0].Facility.ID)
	assert.Equal(t, entities.UnreachableSeconds, resp.Alternatives[0].TravelSeconds)
	assert.False(t, resp.Alternatives[0].Reachable())
}

func TestRecommend_AllUnreachableStillRanks(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.predictor.waits["A"] = 10 * time.Minute
	f.predictor.waits["B"] = time.Minute
	f.expectHospitals(
		[]*entities.Facility{hospital("A"), hospital("B")},
		[]providers.TravelEstimate{{Reachable: false}, {Reachable: false}},
	)

	resp, err := f.service.Recommend(context.Background(), medium(montreal))
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, "B", resp.Recommended.Facility.ID)
	assert.False(t, resp.Recommended.Reachable())
	assert.Equal(t, entities.UnreachableSeconds, resp.Recommended.TravelSeconds)
	require.Len(t, resp.Alternatives, 1)
	assert.Equal(t, "A", resp.Alternatives[0].Facility.ID)
	assert.Equal(t, "The closest facility is Hospital B, B Main St. Travel time is unavailable.", resp.SpokenText)
	assert.NotContains(t, resp.SpokenText, "minute")
}

func TestRecommend_NoTravelRowsIsFatal(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
		Return([]*entities.Facility{hospital("A")}, nil)
	f.source.On("TravelTimes", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, providers.ErrNoTravelRows)

	resp, err := f.service.Recommend(context.Background(), medium(montreal))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNoTravelData))
	assert.ErrorIs(t, err, providers.ErrNoTravelRows)
	f.source.AssertNumberOfCalls(t, "TravelTimes", 1)
}

func TestRecommend_NoCandidatesIsNotFound(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
		Return([]*entities.Facility{}, nil)

	resp, err := f.service.Recommend(context.Background(), medium(montreal))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	f.source.AssertNotCalled(t, "TravelTimes", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.source.AssertNumberOfCalls(t, "Nearby", 1)
}

func TestRecommend_FailuresAreNotCached(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
		Return([]*entities.Facility{}, nil)

	for i := 0; i < 2; i++ {
		_, err := f.service.Recommend(context.Background(), medium(montreal))
		require.Error(t, err)
	}
	f.source.AssertNumberOfCalls(t, "Nearby", 2)
}

func TestRecommend_SourceErrors(t *testing.T) {
	t.Run("upstream failure is external", func(t *testing.T) {
		f := newFixture(t, services.RecommendationOptions{})
		f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
			Return(nil, errors.New("connection reset"))

		_, err := f.service.Recommend(context.Background(), medium(montreal))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	})

	t.Run("typed source error is kept", func(t *testing.T) {
		f := newFixture(t, services.RecommendationOptions{})
		f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
			Return(nil, apperrors.NewConfigurationError("api key rejected"))

		_, err := f.service.Recommend(context.Background(), medium(montreal))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))
	})

	t.Run("timeout is the collaborator's failure", func(t *testing.T) {
		f := newFixture(t, services.RecommendationOptions{CollaboratorTimeout: 20 * time.Millisecond})
		f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded)

		_, err := f.service.Recommend(context.Background(), medium(montreal))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("clinic failure fails the request", func(t *testing.T) {
		f := newFixture(t, services.RecommendationOptions{ParallelFetch: true})
		f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
			Return([]*entities.Facility{hospital("A")}, nil)
		f.source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindClinic).
			Return(nil, errors.New("quota exceeded"))

		resp, err := f.service.Recommend(context.Background(), entities.RecommendRequest{Location: montreal, Severity: entities.SeverityLow})
		require.Error(t, err)
		assert.Nil(t, resp)
		f.source.AssertNotCalled(t, "TravelTimes", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRecommend_SpokenMinutes(t *testing.T) {
	tests := []struct {
		travel int
		want   string
	}{
		{0, "about 1 minute away."},
		{30, "about 1 minute away."},
		{89, "about 1 minute away."},
		{90, "about 2 minutes away."},
		{1500, "about 25 minutes away."},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%ds", tt.travel), func(t *testing.T) {
			f := newFixture(t, services.RecommendationOptions{})
			f.expectHospitals([]*entities.Facility{hospital("A")}, reachable(tt.travel))

			resp, err := f.service.Recommend(context.Background(), medium(montreal))
			require.NoError(t, err)
			assert.Contains(t, resp.SpokenText, tt.want)
			assert.NotContains(t, resp.SpokenText, "0 minutes")
		})
	}
}

func TestRecommend_SpeechBypassesCache(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.expectHospitals([]*entities.Facility{hospital("A")}, reachable(300))
	f.renderer.On("Synthesize", mock.Anything, "The closest facility is Hospital A, A Main St, about 5 minutes away.").
		Return([]byte("mp3"), nil)

	req := medium(montreal)
	req.IncludeSpeech = true
	for i := 0; i < 2; i++ {
		resp, err := f.service.Recommend(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, []byte("mp3"), resp.Audio)
	}
	f.renderer.AssertNumberOfCalls(t, "Synthesize", 2)
	f.source.AssertNumberOfCalls(t, "Nearby", 2)

	// the speech path never populated the text cache
	req.IncludeSpeech = false
	_, err := f.service.Recommend(context.Background(), req)
	require.NoError(t, err)
	f.source.AssertNumberOfCalls(t, "Nearby", 3)
}

func TestRecommend_SpeechIgnoresCachedText(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.expectHospitals([]*entities.Facility{hospital("A")}, reachable(300))
	f.renderer.On("Synthesize", mock.Anything, mock.Anything).Return([]byte("mp3"), nil)

	req := medium(montreal)
	_, err := f.service.Recommend(context.Background(), req)
	require.NoError(t, err)

	req.IncludeSpeech = true
	resp, err := f.service.Recommend(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), resp.Audio)
	f.source.AssertNumberOfCalls(t, "Nearby", 2)
}

func TestRecommend_SpeechFailureIsFatal(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})
	f.expectHospitals([]*entities.Facility{hospital("A")}, reachable(300))
	f.renderer.On("Synthesize", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewExternalError("speech synthesis returned status 401", nil))

	req := medium(montreal)
	req.IncludeSpeech = true
	resp, err := f.service.Recommend(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestRecommend_SpeechWithoutRendererIsConfigurationError(t *testing.T) {
	source := new(MockFacilitySource)
	source.On("Nearby", mock.Anything, mock.Anything, mock.Anything, entities.FacilityKindHospital).
		Return([]*entities.Facility{hospital("A")}, nil)
	source.On("TravelTimes", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(reachable(300), nil)
	service := services.NewRecommendationService(source, &tableWaitPredictor{}, nil, nil, services.RecommendationOptions{})

	_, err := service.Recommend(context.Background(), entities.RecommendRequest{Location: montreal, IncludeSpeech: true})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfiguration))

	resp, err := service.Recommend(context.Background(), entities.RecommendRequest{Location: montreal})
	require.NoError(t, err)
	assert.Equal(t, "A", resp.Recommended.Facility.ID)
}

func TestRecommend_RejectsInvalidRequest(t *testing.T) {
	f := newFixture(t, services.RecommendationOptions{})

	_, err := f.service.Recommend(context.Background(), entities.RecommendRequest{
		Location: entities.Location{Latitude: 91},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	f.source.AssertNotCalled(t, "Nearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

package handlers_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/carerouter/backend/internal/api/handlers"
	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/carerouter/backend/pkg/errors"
)

type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) Recommend(ctx context.Context, req entities.RecommendRequest) (*entities.RecommendResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RecommendResponse), args.Error(1)
}

func sampleResponse() *entities.RecommendResponse {
	return &entities.RecommendResponse{
		Recommended: entities.FacilityScore{
			Facility: entities.Facility{
				ID:       "p1",
				Name:     "Montreal General Hospital",
				Address:  "1650 Cedar Ave",
				Location: entities.Location{Latitude: 45.4968, Longitude: -73.5884},
				Kind:     entities.FacilityKindHospital,
			},
			TravelSeconds:        300,
			PredictedWaitSeconds: 4500,
			TotalSeconds:         4800,
			Explanation:          "Hospital: ~5 min travel + ~1h 15min predicted wait",
		},
		Alternatives: []entities.FacilityScore{},
		SpokenText:   "The closest facility is Montreal General Hospital, 1650 Cedar Ave, about 5 minutes away.",
		Disclaimer:   "routing guidance only",
		GeneratedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecommendationHandler_Recommend(t *testing.T) {
	service := new(MockRecommendationService)
	handler := handlers.NewRecommendationHandler(service)

	service.On("Recommend", mock.Anything, entities.RecommendRequest{
		Location:     entities.Location{Latitude: 45.5017, Longitude: -73.5673},
		Severity:     entities.SeverityLow,
		Mode:         entities.TravelModeWalking,
		RadiusMeters: 3000,
	}).Return(sampleResponse(), nil)

	body := `{"lat": 45.5017, "lng": -73.5673, "severity": "low", "mode": "walking", "radius_m": 3000}`
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.Recommend(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	recommended := got["recommended"].(map[string]interface{})
	facility := recommended["facility"].(map[string]interface{})
	assert.Equal(t, "Montreal General Hospital", facility["name"])
	assert.Equal(t, 45.4968, facility["lat"])
	assert.Equal(t, "hospital", facility["kind"])
	assert.Equal(t, float64(4800), recommended["total_seconds"])
	assert.Equal(t, []interface{}{}, got["alternatives"])
	assert.NotContains(t, got, "tts_audio_base64")
	service.AssertExpectations(t)
}

func TestRecommendationHandler_AudioInJSONIsBase64(t *testing.T) {
	service := new(MockRecommendationService)
	handler := handlers.NewRecommendationHandler(service)

	resp := sampleResponse()
	resp.Audio = []byte("ID3-mp3")
	service.On("Recommend", mock.Anything, mock.MatchedBy(func(r entities.RecommendRequest) bool {
		return r.IncludeSpeech
	})).Return(resp, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(`{"lat": 1, "lng": 2, "include_tts": true}`))
	w := httptest.NewRecorder()
	handler.Recommend(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("ID3-mp3")), got["tts_audio_base64"])
}

func TestRecommendationHandler_AudioFormat(t *testing.T) {
	service := new(MockRecommendationService)
	handler := handlers.NewRecommendationHandler(service)

	resp := sampleResponse()
	resp.Audio = []byte("ID3-mp3")
	service.On("Recommend", mock.Anything, mock.MatchedBy(func(r entities.RecommendRequest) bool {
		return r.IncludeSpeech
	})).Return(resp, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/recommend?format=audio", strings.NewReader(`{"lat": 1, "lng": 2}`))
	w := httptest.NewRecorder()
	handler.Recommend(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "7", w.Header().Get("Content-Length"))
	assert.Equal(t, []byte("ID3-mp3"), w.Body.Bytes())
}

func TestRecommendationHandler_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"malformed", `{"lat": `},
		{"wrong type", `{"lat": "north"}`},
		{"too large", `{"lat": 1, "pad": "` + strings.Repeat("x", 1<<17) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockRecommendationService)
			handler := handlers.NewRecommendationHandler(service)

			req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.Recommend(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, "VALIDATION", got["type"])
			service.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything)
		})
	}
}

func TestRecommendationHandler_MissingLocation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty object", `{}`, "lat and lng are required"},
		{"lat only", `{"lat": 45.5}`, "lng is required"},
		{"lng only", `{"lng": -73.5}`, "lat is required"},
		{"explicit null", `{"lat": null, "lng": -73.5}`, "lat is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockRecommendationService)
			handler := handlers.NewRecommendationHandler(service)

			req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.Recommend(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, "VALIDATION", got["type"])
			assert.Equal(t, tt.wantMsg, got["error"])
			service.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything)
		})
	}
}

func TestRecommendationHandler_ZeroCoordinatesArePresent(t *testing.T) {
	service := new(MockRecommendationService)
	handler := handlers.NewRecommendationHandler(service)
	service.On("Recommend", mock.Anything, entities.RecommendRequest{}).Return(sampleResponse(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(`{"lat": 0, "lng": 0}`))
	w := httptest.NewRecorder()
	handler.Recommend(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestRecommendationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantMsg    string
	}{
		{"validation", apperrors.NewValidationError("radius_m must be between 500 and 25000; got 10"), http.StatusBadRequest, "VALIDATION", "radius_m must be between 500 and 25000; got 10"},
		{"not found", apperrors.NewNotFoundError("no facilities found within 6000 m"), http.StatusNotFound, "NOT_FOUND", "no facilities found within 6000 m"},
		{"no travel data", apperrors.NewNoTravelDataError("travel time source returned no results", nil), http.StatusInternalServerError, "NO_TRAVEL_DATA", "travel time source returned no results"},
		{"configuration", apperrors.NewConfigurationError("ELEVEN_API_KEY is not set"), http.StatusServiceUnavailable, "CONFIGURATION", "ELEVEN_API_KEY is not set"},
		{"external", apperrors.NewExternalError("speech synthesis failed", errors.New("timeout")), http.StatusBadGateway, "EXTERNAL", "speech synthesis failed"},
		{"untyped", errors.New("secret upstream detail"), http.StatusInternalServerError, "INTERNAL", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockRecommendationService)
			handler := handlers.NewRecommendationHandler(service)
			service.On("Recommend", mock.Anything, mock.Anything).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/recommend", strings.NewReader(`{"lat": 1, "lng": 2}`))
			w := httptest.NewRecorder()
			handler.Recommend(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var got map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.wantType, got["type"])
			assert.Equal(t, tt.wantMsg, got["error"])
		})
	}
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		w := httptest.NewRecorder()
		handlers.NewHealthHandler(nil).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("failing dependency", func(t *testing.T) {
		checks := map[string]handlers.HealthChecker{
			"redis": pingFunc(func(ctx context.Context) error { return errors.New("connection refused") }),
		}
		w := httptest.NewRecorder()
		handlers.NewHealthHandler(checks).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"degraded","checks":{"redis":"connection refused"}}`, w.Body.String())
	})
}

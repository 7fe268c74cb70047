package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
	"github.com/zatekoja/carerouter/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/carerouter/backend/pkg/errors"
)

const maxRequestBodyBytes = 1 << 16

// RecommendationService is the engine the handler delegates to
type RecommendationService interface {
	Recommend(ctx context.Context, req entities.RecommendRequest) (*entities.RecommendResponse, error)
}

// RecommendationHandler handles recommendation requests
type RecommendationHandler struct {
	service RecommendationService
}

// recommendBody is the wire form of a recommend request. Coordinates are
// pointers so a missing field is distinguishable from zero.
type recommendBody struct {
	Latitude      *float64 `json:"lat"`
	Longitude     *float64 `json:"lng"`
	Severity      string   `json:"severity"`
	Mode          string   `json:"mode"`
	RadiusMeters  int      `json:"radius_m"`
	IncludeSpeech bool     `json:"include_tts"`
}

func (b recommendBody) toRequest() (entities.RecommendRequest, error) {
	switch {
	case b.Latitude == nil && b.Longitude == nil:
		return entities.RecommendRequest{}, apperrors.NewValidationError("lat and lng are required")
	case b.Latitude == nil:
		return entities.RecommendRequest{}, apperrors.NewValidationError("lat is required")
	case b.Longitude == nil:
		return entities.RecommendRequest{}, apperrors.NewValidationError("lng is required")
	}
	return entities.RecommendRequest{
		Location:      entities.Location{Latitude: *b.Latitude, Longitude: *b.Longitude},
		Severity:      entities.Severity(b.Severity),
		Mode:          entities.TravelMode(b.Mode),
		RadiusMeters:  b.RadiusMeters,
		IncludeSpeech: b.IncludeSpeech,
	}, nil
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(service RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// Recommend handles POST /api/recommend. With ?format=audio speech is forced
// on and the synthesized MP3 is returned as the body instead of JSON.
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var in recommendBody
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			respondWithAppError(w, apperrors.NewValidationError("request body is required"))
		case errors.As(err, &maxErr):
			respondWithAppError(w, apperrors.NewValidationError("request body too large"))
		default:
			respondWithAppError(w, apperrors.NewValidationError("invalid JSON body: "+err.Error()))
		}
		return
	}
	req, err := in.toRequest()
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	audioOnly := r.URL.Query().Get("format") == "audio"
	if audioOnly {
		req.IncludeSpeech = true
	}

	resp, err := h.service.Recommend(r.Context(), req)
	if err != nil {
		logger := observability.LoggerFromContext(r.Context())
		if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
			logger.Error().Err(err).Msg("recommend request failed")
		} else {
			logger.Debug().Err(err).Msg("recommend request rejected")
		}
		respondWithAppError(w, err)
		return
	}

	if audioOnly {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.Audio)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp.Audio)
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

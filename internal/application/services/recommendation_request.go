package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/carerouter/backend/pkg/errors"
)

const cacheKeyPrefix = "recommend:v1"

// NormalizeRequest applies defaults to a recommend request and validates it.
func NormalizeRequest(req entities.RecommendRequest) (entities.RecommendRequest, error) {
	if err := req.Location.Validate(); err != nil {
		return req, apperrors.NewValidationError(err.Error())
	}

	req.Severity = entities.Severity(strings.ToLower(strings.TrimSpace(string(req.Severity))))
	if req.Severity == "" {
		req.Severity = entities.SeverityMedium
	}
	if !req.Severity.Valid() {
		return req, apperrors.NewValidationError(fmt.Sprintf("severity must be one of low, medium, high; got %q", req.Severity))
	}

	req.Mode = entities.TravelMode(strings.ToLower(strings.TrimSpace(string(req.Mode))))
	if req.Mode == "" {
		req.Mode = entities.TravelModeDriving
	}
	if !req.Mode.Valid() {
		return req, apperrors.NewValidationError(fmt.Sprintf("mode must be one of driving, transit, walking; got %q", req.Mode))
	}

	if req.RadiusMeters == 0 {
		req.RadiusMeters = entities.DefaultRadiusMeters
	}
	if req.RadiusMeters < entities.MinRadiusMeters || req.RadiusMeters > entities.MaxRadiusMeters {
		return req, apperrors.NewValidationError(fmt.Sprintf("radius_m must be between %d and %d; got %d",
			entities.MinRadiusMeters, entities.MaxRadiusMeters, req.RadiusMeters))
	}

	return req, nil
}

// CacheKey fingerprints a normalized request. Coordinates are rounded to four
// decimal places (about 11 m) so GPS jitter maps to the same entry.
func CacheKey(req entities.RecommendRequest) string {
	return strings.Join([]string{
		cacheKeyPrefix,
		roundCoordinate(req.Latitude),
		roundCoordinate(req.Longitude),
		string(req.Severity),
		string(req.Mode),
		strconv.Itoa(req.RadiusMeters),
	}, ":")
}

func roundCoordinate(v float64) string {
	rounded := math.Round(v*1e4) / 1e4
	if rounded == 0 {
		// -0 and 0 share a key
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

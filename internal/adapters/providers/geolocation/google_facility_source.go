package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
	"github.com/zatekoja/carerouter/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/carerouter/backend/pkg/errors"
)

const (
	googleNearbySearchURL   = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"
	googleDistanceMatrixURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
	defaultHTTPTimeout      = 10 * time.Second
	defaultClinicKeyword    = "walk-in clinic urgent care"
)

// clinicExcludeKeywords drops specialty practices that cannot see walk-in patients
var clinicExcludeKeywords = []string{
	"hearing", "audiolog",
	"dental", "dentist", "orthodont",
	"optometr", "eye care", "vision",
	"chiropract",
	"physiotherap", "physio",
	"massage", "spa",
	"veterinar", "vet ", "animal",
	"pharmacy", "pharmacie", "drugstore",
	"cosmetic", "plastic surgery", "aestheti", "esthéti",
	"dermatolog", "skin care",
	"fertility", "ivf",
	"weight loss", "diet",
	"acupunct",
	"naturopath",
	"podiatr", "foot care",
	"sleep clinic",
	"lab ", "laborator",
	"imaging", "radiolog", "x-ray", "mri", "ct scan",
}

// clinicExcludeTypes drops places Google tags as non-medical or specialty
var clinicExcludeTypes = map[string]bool{
	"dentist":         true,
	"pharmacy":        true,
	"drugstore":       true,
	"physiotherapist": true,
	"veterinary_care": true,
	"spa":             true,
	"beauty_salon":    true,
}

// GoogleOptions configures a GoogleFacilitySource
type GoogleOptions struct {
	APIKey string

	// PreferTrafficDuration requests live-traffic durations for driving and
	// uses them when the upstream returns one.
	PreferTrafficDuration bool

	// QPS caps outbound calls; zero or negative disables the limit.
	QPS float64

	ClinicKeyword string
	PlacesURL     string
	DistanceURL   string
	HTTPClient    *http.Client
	Timeout       time.Duration
}

// GoogleFacilitySource implements providers.FacilitySource using the Google
// Places Nearby Search and Distance Matrix APIs.
type GoogleFacilitySource struct {
	apiKey        string
	httpClient    *http.Client
	limiter       *rate.Limiter
	placesURL     string
	distanceURL   string
	clinicKeyword string
	preferTraffic bool
	now           func() time.Time
}

// NewGoogleFacilitySource creates a new Google facility source.
func NewGoogleFacilitySource(apiKey string) (*GoogleFacilitySource, error) {
	return NewGoogleFacilitySourceWithOptions(GoogleOptions{APIKey: apiKey})
}

// NewGoogleFacilitySourceWithOptions allows overriding base URLs and HTTP client (used for tests).
func NewGoogleFacilitySourceWithOptions(opts GoogleOptions) (*GoogleFacilitySource, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, apperrors.NewConfigurationError("GOOGLE_MAPS_API_KEY is not set")
	}
	if strings.TrimSpace(opts.PlacesURL) == "" {
		opts.PlacesURL = googleNearbySearchURL
	}
	if strings.TrimSpace(opts.DistanceURL) == "" {
		opts.DistanceURL = googleDistanceMatrixURL
	}
	if strings.TrimSpace(opts.ClinicKeyword) == "" {
		opts.ClinicKeyword = defaultClinicKeyword
	}
	if opts.HTTPClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := 1
	if opts.QPS > 0 {
		limit = rate.Limit(opts.QPS)
		burst = int(opts.QPS)
		if burst < 1 {
			burst = 1
		}
	}

	return &GoogleFacilitySource{
		apiKey:        opts.APIKey,
		httpClient:    opts.HTTPClient,
		limiter:       rate.NewLimiter(limit, burst),
		placesURL:     opts.PlacesURL,
		distanceURL:   opts.DistanceURL,
		clinicKeyword: opts.ClinicKeyword,
		preferTraffic: opts.PreferTrafficDuration,
		now:           time.Now,
	}, nil
}

// Nearby finds hospitals or walk-in clinics around center.
func (g *GoogleFacilitySource) Nearby(ctx context.Context, center entities.Location, radiusMeters int, kind entities.FacilityKind) ([]*entities.Facility, error) {
	params := url.Values{}
	params.Set("location", center.String())
	params.Set("radius", strconv.Itoa(radiusMeters))
	if kind == entities.FacilityKindClinic {
		params.Set("type", "doctor")
		params.Set("keyword", g.clinicKeyword)
	} else {
		params.Set("type", "hospital")
	}

	var payload googleNearbyResponse
	if err := g.get(ctx, g.placesURL, params, &payload); err != nil {
		return nil, fmt.Errorf("nearby search failed: %w", err)
	}

	switch payload.Status {
	case "OK", "":
	case "ZERO_RESULTS":
		return []*entities.Facility{}, nil
	default:
		return nil, statusError("nearby search", payload.Status, payload.ErrorMessage)
	}

	facilities := make([]*entities.Facility, 0, len(payload.Results))
	for _, p := range payload.Results {
		if kind == entities.FacilityKindClinic && !isRelevantClinic(p.Name, p.Types) {
			continue
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = "Unknown"
		}
		address := p.Vicinity
		if address == "" {
			address = p.FormattedAddress
		}
		facilities = append(facilities, &entities.Facility{
			ID:      p.PlaceID,
			Name:    name,
			Address: address,
			Location: entities.Location{
				Latitude:  p.Geometry.Location.Lat,
				Longitude: p.Geometry.Location.Lng,
			},
			Kind: kind,
		})
	}

	return facilities, nil
}

// TravelTimes returns one travel estimate per facility, aligned with facilities.
func (g *GoogleFacilitySource) TravelTimes(ctx context.Context, origin entities.Location, facilities []*entities.Facility, mode entities.TravelMode) ([]providers.TravelEstimate, error) {
	if len(facilities) == 0 {
		return []providers.TravelEstimate{}, nil
	}

	destinations := make([]string, len(facilities))
	for i, f := range facilities {
		destinations[i] = f.Location.String()
	}

	params := url.Values{}
	params.Set("origins", origin.String())
	params.Set("destinations", strings.Join(destinations, "|"))
	params.Set("mode", string(mode))
	useTraffic := g.preferTraffic && mode == entities.TravelModeDriving
	if useTraffic {
		params.Set("departure_time", strconv.FormatInt(g.now().Unix(), 10))
	}

	var payload googleDistanceMatrixResponse
	if err := g.get(ctx, g.distanceURL, params, &payload); err != nil {
		return nil, fmt.Errorf("distance matrix request failed: %w", err)
	}

	if payload.Status != "" && payload.Status != "OK" {
		return nil, statusError("distance matrix", payload.Status, payload.ErrorMessage)
	}
	if len(payload.Rows) == 0 {
		return nil, providers.ErrNoTravelRows
	}

	elements := payload.Rows[0].Elements
	if len(elements) != len(facilities) {
		return nil, fmt.Errorf("distance matrix returned %d elements for %d destinations", len(elements), len(facilities))
	}

	estimates := make([]providers.TravelEstimate, len(elements))
	for i, el := range elements {
		if el.Status != "OK" || el.Duration == nil {
			estimates[i] = providers.TravelEstimate{Reachable: false}
			continue
		}
		seconds := el.Duration.Value
		if useTraffic && el.DurationInTraffic != nil {
			seconds = el.DurationInTraffic.Value
		}
		if seconds < 0 {
			seconds = 0
		}
		estimates[i] = providers.TravelEstimate{Seconds: seconds, Reachable: true}
	}

	return estimates, nil
}

func (g *GoogleFacilitySource) get(ctx context.Context, baseURL string, params url.Values, out interface{}) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(op, status, message string) error {
	if status == "REQUEST_DENIED" {
		return apperrors.NewConfigurationError(fmt.Sprintf("%s rejected the api key: %s", op, message))
	}
	if message != "" {
		return fmt.Errorf("%s failed: %s - %s", op, status, message)
	}
	return fmt.Errorf("%s failed: %s", op, status)
}

func isRelevantClinic(name string, types []string) bool {
	for _, t := range types {
		if clinicExcludeTypes[t] {
			return false
		}
	}
	lower := strings.ToLower(name)
	for _, keyword := range clinicExcludeKeywords {
		if strings.Contains(lower, keyword) {
			return false
		}
	}
	return true
}

type googleNearbyResponse struct {
	Status       string               `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
	Results      []googleNearbyResult `json:"results"`
}

type googleNearbyResult struct {
	PlaceID          string         `json:"place_id"`
	Name             string         `json:"name"`
	Vicinity         string         `json:"vicinity"`
	FormattedAddress string         `json:"formatted_address"`
	Geometry         googleGeometry `json:"geometry"`
	Types            []string       `json:"types"`
}

type googleGeometry struct {
	Location googleLocation `json:"location"`
}

type googleLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleDistanceMatrixResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Rows         []googleDistanceRow `json:"rows"`
}

type googleDistanceRow struct {
	Elements []googleDistanceElement `json:"elements"`
}

type googleDistanceElement struct {
	Status            string               `json:"status"`
	Duration          *googleDurationValue `json:"duration,omitempty"`
	DurationInTraffic *googleDurationValue `json:"duration_in_traffic,omitempty"`
}

type googleDurationValue struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

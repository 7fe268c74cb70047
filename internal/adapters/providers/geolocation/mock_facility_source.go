package geolocation

import (
	"context"
	"fmt"
	"math"

	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
	"github.com/zatekoja/carerouter/backend/internal/domain/providers"
)

// average door-to-door speeds in km/h
var modeSpeedsKmh = map[entities.TravelMode]float64{
	entities.TravelModeDriving: 30,
	entities.TravelModeTransit: 18,
	entities.TravelModeWalking: 4.8,
}

// maxWalkingKm is the farthest mock walking route considered reachable
const maxWalkingKm = 8.0

type mockPlace struct {
	name    string
	address string
	// offsets from the search center, as a fraction of the radius
	north, east float64
}

var mockPlaces = map[entities.FacilityKind][]mockPlace{
	entities.FacilityKindHospital: {
		{"General Hospital", "1650 Cedar Ave", 0.35, -0.20},
		{"University Health Centre", "1001 Decarie Blvd", -0.60, -0.55},
		{"St. Mary's Hospital", "3830 Lacombe Ave", 0.15, 0.80},
	},
	entities.FacilityKindClinic: {
		{"Walk-in Medical Clinic", "245 Rue Principale", 0.10, 0.10},
		{"Urgent Care Express", "5800 Sherbrooke St W", -0.30, 0.40},
	},
}

// MockFacilitySource implements providers.FacilitySource without network
// calls, for local development and demos.
type MockFacilitySource struct{}

// NewMockFacilitySource creates a new mock facility source
func NewMockFacilitySource() *MockFacilitySource {
	return &MockFacilitySource{}
}

// Nearby returns a fixed set of facilities placed around center inside the radius
func (m *MockFacilitySource) Nearby(ctx context.Context, center entities.Location, radiusMeters int, kind entities.FacilityKind) ([]*entities.Facility, error) {
	places := mockPlaces[kind]
	radiusKm := float64(radiusMeters) / 1000

	facilities := make([]*entities.Facility, 0, len(places))
	for i, p := range places {
		facilities = append(facilities, &entities.Facility{
			ID:       fmt.Sprintf("mock-%s-%d", kind, i+1),
			Name:     p.name,
			Address:  p.address,
			Location: offset(center, p.north*radiusKm, p.east*radiusKm),
			Kind:     kind,
		})
	}
	return facilities, nil
}

// TravelTimes estimates travel from straight-line distance and a per-mode speed
func (m *MockFacilitySource) TravelTimes(ctx context.Context, origin entities.Location, facilities []*entities.Facility, mode entities.TravelMode) ([]providers.TravelEstimate, error) {
	speed, ok := modeSpeedsKmh[mode]
	if !ok {
		return nil, fmt.Errorf("unsupported travel mode %q", mode)
	}

	estimates := make([]providers.TravelEstimate, len(facilities))
	for i, f := range facilities {
		km := HaversineKm(origin, f.Location)
		if mode == entities.TravelModeWalking && km > maxWalkingKm {
			estimates[i] = providers.TravelEstimate{Reachable: false}
			continue
		}
		estimates[i] = providers.TravelEstimate{
			Seconds:   int(math.Round(km / speed * 3600)),
			Reachable: true,
		}
	}
	return estimates, nil
}

// HaversineKm calculates the great-circle distance between two points in kilometers
func HaversineKm(from, to entities.Location) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := toRadians(from.Latitude)
	lat2Rad := toRadians(to.Latitude)
	deltaLat := toRadians(to.Latitude - from.Latitude)
	deltaLon := toRadians(to.Longitude - from.Longitude)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func offset(center entities.Location, northKm, eastKm float64) entities.Location {
	const kmPerDegree = 111.32
	lat := center.Latitude + northKm/kmPerDegree
	lng := center.Longitude + eastKm/(kmPerDegree*math.Cos(toRadians(center.Latitude)))
	return entities.Location{Latitude: lat, Longitude: lng}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

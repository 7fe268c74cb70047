package providers

import (
	"context"
	"errors"

	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
)

// ErrNoTravelRows is returned by TravelTimes when the upstream produced no
// rows at all, as opposed to failing for individual facilities.
var ErrNoTravelRows = errors.New("travel time source returned no rows")

// FacilitySource discovers facilities and estimates travel to them
type FacilitySource interface {
	// Nearby returns facilities of the given kind within radiusMeters of center,
	// in the source's own relevance order.
	Nearby(ctx context.Context, center entities.Location, radiusMeters int, kind entities.FacilityKind) ([]*entities.Facility, error)

	// TravelTimes returns one estimate per facility, aligned by index.
	TravelTimes(ctx context.Context, origin entities.Location, facilities []*entities.Facility, mode entities.TravelMode) ([]TravelEstimate, error)
}

// TravelEstimate is the travel duration to a single facility
type TravelEstimate struct {
	Seconds   int
	Reachable bool
}

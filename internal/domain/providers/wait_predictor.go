package providers

import (
	"time"

	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
)

// WaitPredictor estimates how long a patient will wait once at a facility
type WaitPredictor interface {
	// PredictWait returns the expected wait for the severity at the facility
	PredictWait(facility *entities.Facility, severity entities.Severity) time.Duration

	// Explain renders a one-line human readable breakdown of travel and wait
	Explain(facility *entities.Facility, travel, wait time.Duration) string
}

package waittime

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
)

// baseWaits holds the typical wait per facility kind and severity when no
// live occupancy is known. High acuity is triaged ahead at emergency departments.
var baseWaits = map[entities.FacilityKind]map[entities.Severity]time.Duration{
	entities.FacilityKindHospital: {
		entities.SeverityHigh:   20 * time.Minute,
		entities.SeverityMedium: 75 * time.Minute,
		entities.SeverityLow:    150 * time.Minute,
	},
	entities.FacilityKindClinic: {
		entities.SeverityHigh:   90 * time.Minute,
		entities.SeverityMedium: 60 * time.Minute,
		entities.SeverityLow:    30 * time.Minute,
	},
}

// severityFactors scale an occupancy-derived wait, which reflects an average patient
var severityFactors = map[entities.Severity]float64{
	entities.SeverityHigh:   0.3,
	entities.SeverityMedium: 1.0,
	entities.SeverityLow:    1.2,
}

const (
	defaultWait      = 60 * time.Minute
	minOccupancyWait = 15 * time.Minute
	maxOccupancyWait = 8 * time.Hour
)

// OccupancySnapshot is the emergency department load published for a hospital
type OccupancySnapshot struct {
	Name               string `json:"name"`
	WaitingToSeeDoctor int    `json:"waiting_to_see_doctor"`
	OccupancyRate      int    `json:"occupancy_rate"` // percent of functional stretchers occupied
}

// HeuristicPredictor implements providers.WaitPredictor from a fixed table,
// refined by emergency department occupancy when a snapshot matches the hospital.
type HeuristicPredictor struct {
	occupancy []normalizedSnapshot
}

type normalizedSnapshot struct {
	key      string
	snapshot OccupancySnapshot
}

// Option configures a HeuristicPredictor
type Option func(*HeuristicPredictor)

// WithOccupancy supplies hospital occupancy snapshots matched by name
func WithOccupancy(snapshots []OccupancySnapshot) Option {
	return func(p *HeuristicPredictor) {
		for _, s := range snapshots {
			p.occupancy = append(p.occupancy, normalizedSnapshot{key: NormalizeHospitalName(s.Name), snapshot: s})
		}
	}
}

// NewHeuristicPredictor creates a new wait predictor
func NewHeuristicPredictor(opts ...Option) *HeuristicPredictor {
	p := &HeuristicPredictor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PredictWait returns the expected wait at facility for severity
func (p *HeuristicPredictor) PredictWait(facility *entities.Facility, severity entities.Severity) time.Duration {
	if facility == nil {
		return defaultWait
	}

	if facility.Kind == entities.FacilityKindHospital {
		if snap, ok := p.matchOccupancy(facility.Name); ok {
			factor, ok := severityFactors[severity]
			if !ok {
				factor = 1.0
			}
			minutes := OccupancyWait(snap).Minutes() * factor
			return time.Duration(math.Round(minutes)) * time.Minute
		}
	}

	if byKind, ok := baseWaits[facility.Kind]; ok {
		if wait, ok := byKind[severity]; ok {
			return wait
		}
	}
	return defaultWait
}

// Explain renders the travel and wait breakdown for one facility
func (p *HeuristicPredictor) Explain(facility *entities.Facility, travel, wait time.Duration) string {
	kind := "Facility"
	if facility != nil && facility.Kind != "" {
		kind = strings.ToUpper(string(facility.Kind[:1])) + string(facility.Kind[1:])
	}

	travelText := "route unavailable"
	if travel < time.Duration(entities.UnreachableSeconds)*time.Second {
		travelText = "~" + FormatDuration(travel) + " travel"
	}
	return fmt.Sprintf("%s: %s + ~%s predicted wait", kind, travelText, FormatDuration(wait))
}

func (p *HeuristicPredictor) matchOccupancy(name string) (OccupancySnapshot, bool) {
	if len(p.occupancy) == 0 {
		return OccupancySnapshot{}, false
	}
	search := NormalizeHospitalName(name)
	if search == "" {
		return OccupancySnapshot{}, false
	}

	for _, o := range p.occupancy {
		if o.key == search {
			return o.snapshot, true
		}
	}
	for _, o := range p.occupancy {
		if o.key != "" && (strings.Contains(o.key, search) || strings.Contains(search, o.key)) {
			return o.snapshot, true
		}
	}
	for _, keyword := range strings.Fields(search) {
		if len(keyword) <= 3 {
			continue
		}
		for _, o := range p.occupancy {
			if strings.Contains(o.key, keyword) {
				return o.snapshot, true
			}
		}
	}
	return OccupancySnapshot{}, false
}

// OccupancyWait estimates an average emergency wait from department load:
// 15 minutes per patient waiting to see a doctor, scaled by occupancy, with
// a penalty above 100% and 150%, clamped to [15 min, 8 h].
func OccupancyWait(s OccupancySnapshot) time.Duration {
	occupancyFactor := math.Max(0.5, float64(s.OccupancyRate)/100)
	minutes := float64(s.WaitingToSeeDoctor) * 15 * occupancyFactor

	switch {
	case s.OccupancyRate > 150:
		minutes *= 1.5
	case s.OccupancyRate > 100:
		minutes *= 1.2
	}

	wait := time.Duration(math.Round(minutes)) * time.Minute
	if wait < minOccupancyWait {
		return minOccupancyWait
	}
	if wait > maxOccupancyWait {
		return maxOccupancyWait
	}
	return wait
}

// FormatDuration renders d in whole minutes as "45 min", "1h 30min" or "2h".
// Anything under a minute is shown as one minute.
func FormatDuration(d time.Duration) string {
	minutes := int(math.Round(d.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours, rem := minutes/60, minutes%60
	if rem == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dmin", hours, rem)
}

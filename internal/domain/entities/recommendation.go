package entities

import (
	"math"
	"time"
)

// Severity is the caller's self-reported symptom acuity
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// TravelMode is how the caller will reach the facility
type TravelMode string

const (
	TravelModeDriving TravelMode = "driving"
	TravelModeTransit TravelMode = "transit"
	TravelModeWalking TravelMode = "walking"
)

// Valid reports whether m is one of the supported travel modes
func (m TravelMode) Valid() bool {
	switch m {
	case TravelModeDriving, TravelModeTransit, TravelModeWalking:
		return true
	}
	return false
}

// Search radius bounds, in meters
const (
	MinRadiusMeters     = 500
	MaxRadiusMeters     = 25000
	DefaultRadiusMeters = 6000
)

// UnreachableSeconds is the travel time assigned to a facility the travel
// source could not route to. It is practically infinite: any reachable
// facility plus any predicted wait ranks ahead of it.
const UnreachableSeconds = math.MaxInt32

// RecommendRequest is one inbound recommendation call
type RecommendRequest struct {
	Location
	Severity      Severity   `json:"severity,omitempty"`
	Mode          TravelMode `json:"mode,omitempty"`
	RadiusMeters  int        `json:"radius_m,omitempty"`
	IncludeSpeech bool       `json:"include_tts,omitempty"`
}

// FacilityScore pairs a candidate with its travel, wait and total durations
type FacilityScore struct {
	Facility             Facility `json:"facility"`
	TravelSeconds        int      `json:"travel_seconds"`
	PredictedWaitSeconds int      `json:"predicted_wait_seconds"`
	TotalSeconds         int      `json:"total_seconds"`
	Explanation          string   `json:"explanation"`
}

// Reachable reports whether the travel source produced a route to the facility
func (s FacilityScore) Reachable() bool {
	return s.TravelSeconds < UnreachableSeconds
}

// RecommendResponse is the ranked recommendation returned to the caller.
// Audio is only set when speech was requested and is base64-encoded in JSON.
type RecommendResponse struct {
	Recommended  FacilityScore   `json:"recommended"`
	Alternatives []FacilityScore `json:"alternatives"`
	SpokenText   string          `json:"spoken_text"`
	Audio        []byte          `json:"tts_audio_base64,omitempty"`
	Disclaimer   string          `json:"disclaimer"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

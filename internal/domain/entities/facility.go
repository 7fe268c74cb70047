package entities

import (
	"fmt"
	"math"
)

// FacilityKind distinguishes emergency departments from walk-in clinics
type FacilityKind string

const (
	FacilityKindHospital FacilityKind = "hospital"
	FacilityKindClinic   FacilityKind = "clinic"
)

// Facility represents a hospital or clinic returned by a facility source.
// Facilities are read-only once the source has built them.
type Facility struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`

	Location

	Kind    FacilityKind `json:"kind"`
	Phone   *string      `json:"phone,omitempty"`
	Website *string      `json:"website,omitempty"`
}

// Location represents geographical coordinates in WGS84 degrees
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Validate checks that the coordinates are finite and inside WGS84 bounds
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", l.Latitude)
	}
	if math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", l.Longitude)
	}
	return nil
}

// String renders the location the way map APIs expect it ("lat,lng")
func (l Location) String() string {
	return fmt.Sprintf("%f,%f", l.Latitude, l.Longitude)
}

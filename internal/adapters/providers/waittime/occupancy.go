package waittime

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadOccupancy decodes a JSON array of occupancy snapshots
func ReadOccupancy(r io.Reader) ([]OccupancySnapshot, error) {
	var snapshots []OccupancySnapshot
	if err := json.NewDecoder(r).Decode(&snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode occupancy snapshots: %w", err)
	}

	valid := snapshots[:0]
	for _, s := range snapshots {
		if s.Name == "" || s.WaitingToSeeDoctor < 0 || s.OccupancyRate < 0 {
			continue
		}
		valid = append(valid, s)
	}
	return valid, nil
}

// LoadOccupancyFile reads snapshots from a JSON file
func LoadOccupancyFile(path string) ([]OccupancySnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open occupancy file: %w", err)
	}
	defer f.Close()
	return ReadOccupancy(f)
}

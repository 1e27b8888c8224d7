package domain

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Validate checks that the point lies inside the WGS 84 value ranges.
func (c Coordinates) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %v outside [-90,90]: %w", c.Lat, ErrInvalidCoordinate)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %v outside [-180,180]: %w", c.Lon, ErrInvalidCoordinate)
	}
	return nil
}

// StraightLineKm returns the great-circle distance in kilometres between two
// points on the mean-radius sphere. The result is symmetric in its arguments
// and zero for identical points.
func StraightLineKm(a, b Coordinates) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("straight-line distance: origin: %w", err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("straight-line distance: destination: %w", err)
	}

	p := s2.LatLngFromDegrees(a.Lat, a.Lon)
	q := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p.Distance(q).Radians() * EarthRadiusKm, nil
}

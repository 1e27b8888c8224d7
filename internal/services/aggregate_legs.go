package services

import (
	"corridor-match-service/internal/domain"
	"fmt"
	"math"
)

// LegAggregate carries the per-itinerary figures the scorer consumes.
type LegAggregate struct {
	RouteDistanceKm float64
	TransferCount   int
	DurationMinutes float64
}

// AggregateLegs reduces an itinerary's ordered legs to route distance,
// transfer count and duration.
//
// Distance is mandatory: legs arrive from the planner with an optional
// distance field, but detour scoring cannot proceed without it, so a leg
// with no usable distance fails the whole itinerary. Duration is always
// derived from the first and last leg timestamps rather than trusting any
// itinerary-level figure, so the score reflects the legs actually summed.
func AggregateLegs(legs []domain.Leg) (LegAggregate, error) {
	if len(legs) == 0 {
		return LegAggregate{}, fmt.Errorf("aggregate legs: %w", domain.ErrEmptyItinerary)
	}

	var meters float64
	for i, leg := range legs {
		if leg.DistanceMeters <= 0 || math.IsNaN(leg.DistanceMeters) {
			return LegAggregate{}, fmt.Errorf(
				"aggregate legs: leg %d (%s): %w",
				i, leg.Mode, domain.ErrMissingDistance,
			)
		}
		meters += leg.DistanceMeters
	}

	duration := legs[len(legs)-1].EndTime.Sub(legs[0].StartTime).Minutes()

	return LegAggregate{
		RouteDistanceKm: meters / 1000.0,
		TransferCount:   len(legs) - 1,
		DurationMinutes: duration,
	}, nil
}

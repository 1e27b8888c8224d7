package services

import (
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/ports"
	"fmt"
	"time"
)

// BuildItinerary turns one raw planner itinerary into a domain itinerary.
//
// Timestamps arrive as Unix milliseconds and become UTC times. A leg without
// a distance fails the build, since nothing downstream can score it. The
// itinerary's own start and end come from its first and last leg regardless
// of what the planner reported at itinerary level.
//
// With strict enabled the legs must be chronologically contiguous: each leg
// ends no earlier than it starts, and no leg starts before the previous one
// ended. Planners occasionally emit slightly overlapping legs around
// interchanges, so the check is off unless the caller opts in.
func BuildItinerary(p ports.PlannedItinerary, strict bool) (domain.Itinerary, error) {
	if len(p.Legs) == 0 {
		return domain.Itinerary{}, fmt.Errorf("build itinerary: %w", domain.ErrEmptyItinerary)
	}

	legs := make([]domain.Leg, 0, len(p.Legs))
	for i, pl := range p.Legs {
		if pl.DistanceMeters == nil {
			return domain.Itinerary{}, fmt.Errorf(
				"build itinerary: leg %d (%s): %w",
				i, pl.Mode, domain.ErrMissingDistance,
			)
		}

		leg := domain.Leg{
			Mode:           domain.ParseMode(pl.Mode),
			From:           domain.Place{Name: pl.From.Name, StopID: pl.From.StopID},
			To:             domain.Place{Name: pl.To.Name, StopID: pl.To.StopID},
			StartTime:      fromUnixMs(pl.StartTimeMs),
			EndTime:        fromUnixMs(pl.EndTimeMs),
			DistanceMeters: *pl.DistanceMeters,
			TripID:         pl.TripID,
			RouteID:        pl.RouteID,
		}

		if strict {
			if leg.EndTime.Before(leg.StartTime) {
				return domain.Itinerary{}, fmt.Errorf(
					"build itinerary: leg %d ends before it starts: %w",
					i, domain.ErrInvalidItineraryOrdering,
				)
			}
			if i > 0 && leg.StartTime.Before(legs[i-1].EndTime) {
				return domain.Itinerary{}, fmt.Errorf(
					"build itinerary: leg %d starts before leg %d ends: %w",
					i, i-1, domain.ErrInvalidItineraryOrdering,
				)
			}
		}

		legs = append(legs, leg)
	}

	return domain.Itinerary{
		Legs:      legs,
		StartTime: legs[0].StartTime,
		EndTime:   legs[len(legs)-1].EndTime,
	}, nil
}

func fromUnixMs(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

package services

import (
	"corridor-match-service/internal/domain"
	"fmt"
)

// ScoreItinerary computes the corridor score of one itinerary.
//
// The score is the itinerary duration in minutes plus two penalties: a
// detour penalty that grows with how far the travelled distance exceeds the
// straight line between the corridor endpoints, and a flat penalty per
// transfer. Lower is better. A route no longer than the straight line gets
// no detour penalty, and when origin and destination coincide the detour
// ratio is defined as 1.0 rather than dividing by zero.
//
// The result is fully populated or the call fails; no partial scores.
func ScoreItinerary(
	it domain.Itinerary,
	origin domain.Coordinates,
	destination domain.Coordinates,
	corridorID string,
	w domain.ScoringWeights,
) (domain.CorridorScore, error) {
	agg, err := AggregateLegs(it.Legs)
	if err != nil {
		return domain.CorridorScore{}, fmt.Errorf("score itinerary: %w", err)
	}

	straightKm, err := domain.StraightLineKm(origin, destination)
	if err != nil {
		return domain.CorridorScore{}, fmt.Errorf("score itinerary: %w", err)
	}

	ratio := 1.0
	if straightKm > 0 {
		ratio = agg.RouteDistanceKm / straightKm
		if ratio < 1.0 {
			ratio = 1.0
		}
	}

	detourPenalty := (ratio - 1.0) * agg.DurationMinutes * w.DetourWeight
	transferPenalty := float64(agg.TransferCount) * w.TransferPenaltyMinutes

	return domain.CorridorScore{
		CorridorID:             corridorID,
		Score:                  agg.DurationMinutes + detourPenalty + transferPenalty,
		DurationMinutes:        agg.DurationMinutes,
		DetourPenaltyMinutes:   detourPenalty,
		TransferPenaltyMinutes: transferPenalty,
		DetourRatio:            ratio,
		RouteDistanceKm:        agg.RouteDistanceKm,
		StraightLineKm:         straightKm,
		TransferCount:          agg.TransferCount,
	}, nil
}

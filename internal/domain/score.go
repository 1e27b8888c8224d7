package domain

// Default scoring weights. Deployments override these via configuration,
// corridors via their stored overrides, and callers via request parameters.
const (
	DefaultDetourWeight           = 0.5
	DefaultTransferPenaltyMinutes = 10.0
)

// ScoringWeights tunes the corridor score. The weights travel explicitly
// into the scorer rather than living in package state, so a scoring run is
// reproducible under any weighting.
type ScoringWeights struct {
	DetourWeight           float64
	TransferPenaltyMinutes float64
}

// DefaultWeights returns the documented default weighting.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		DetourWeight:           DefaultDetourWeight,
		TransferPenaltyMinutes: DefaultTransferPenaltyMinutes,
	}
}

// CorridorScore is the derived decision-quality value of one itinerary on a
// corridor. Penalties and the total are minutes; lower is better. DetourRatio
// is route distance over straight-line distance and is at least 1.0.
type CorridorScore struct {
	CorridorID             string
	Score                  float64
	DurationMinutes        float64
	DetourPenaltyMinutes   float64
	TransferPenaltyMinutes float64
	DetourRatio            float64
	RouteDistanceKm        float64
	StraightLineKm         float64
	TransferCount          int
}

// ScoredRoute pairs one itinerary with its corridor score. Created by the
// scorer, ordered by the ranker, never mutated.
type ScoredRoute struct {
	Itinerary Itinerary
	Score     CorridorScore
}

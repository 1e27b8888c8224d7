package domain

import "time"

// MatchResult is the stored outcome of one corridor match run: the ranked
// routes plus the per-itinerary failures that were isolated during scoring.
// PlannedCount is how many itineraries the trip planner returned;
// ScoredCount + FailedCount always equals PlannedCount.
type MatchResult struct {
	ID          string
	CorridorID  string
	RequestedAt time.Time
	DepartAt    time.Time

	PlannedCount int
	ScoredCount  int
	FailedCount  int

	Routes   []ScoredRoute
	Failures []string
}

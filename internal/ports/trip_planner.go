package ports

import (
	"context"
	"corridor-match-service/internal/domain"
	"time"
)

// TripQuery asks the upstream planner for itineraries between two points.
type TripQuery struct {
	From           domain.Coordinates
	To             domain.Coordinates
	DepartAt       time.Time
	MaxItineraries int
}

// PlannedPlace is one end of a planned leg as the planner reports it.
type PlannedPlace struct {
	Name   string
	StopID string
	Lat    float64
	Lon    float64
}

// PlannedLeg mirrors one leg of the raw plan response. Timestamps are Unix
// milliseconds; Distance is metres and genuinely optional at this boundary,
// even though scoring cannot proceed without it.
type PlannedLeg struct {
	Mode           string
	From           PlannedPlace
	To             PlannedPlace
	StartTimeMs    int64
	EndTimeMs      int64
	DistanceMeters *float64
	TripID         string
	RouteID        string
}

// PlannedItinerary is one raw candidate itinerary. DurationSec carries the
// planner's own figure when present; the scoring pipeline always re-derives
// duration from the legs.
type PlannedItinerary struct {
	StartTimeMs int64
	EndTimeMs   int64
	DurationSec *int64
	Legs        []PlannedLeg
}

// StopLocation is a resolved stop position.
type StopLocation struct {
	StopID   string
	Name     string
	Position domain.Coordinates
}

// Contract for querying the upstream trip-planning engine.
type TripPlanner interface {
	// PlanItineraries returns raw candidate itineraries for a query.
	PlanItineraries(ctx context.Context, q TripQuery) ([]PlannedItinerary, error)
	// LookupStop resolves a "<feedId>:<code>" stop identifier to its location.
	LookupStop(ctx context.Context, stopID string) (StopLocation, error)
}

package domain

import "time"

// Place names one end of a leg. StopID, when present, follows the upstream
// "<feedId>:<code>" convention (e.g. "GB:LDS" for a CRS station code).
type Place struct {
	Name   string
	StopID string
}

// Leg is one continuous transport segment of an itinerary.
//
// The upstream planner marks distance as optional, but corridor scoring
// cannot run without it, so legs are produced by a validated construction
// step and treated as immutable afterwards. Timestamps are UTC.
type Leg struct {
	Mode           TransportMode
	From           Place
	To             Place
	StartTime      time.Time
	EndTime        time.Time
	DistanceMeters float64
	TripID         string
	RouteID        string
}

// Duration of this single leg.
func (l Leg) Duration() time.Duration {
	return l.EndTime.Sub(l.StartTime)
}

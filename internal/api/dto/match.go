package dto

import "time"

// MatchRequest is the POST /matches body. Either corridor_id or both stop
// ids select the corridor; the remaining fields are optional.
type MatchRequest struct {
	CorridorID        string     `json:"corridor_id"`
	OriginStopID      string     `json:"origin_stop_id"`
	DestinationStopID string     `json:"destination_stop_id"`
	DepartAt          *time.Time `json:"depart_at"`
	MaxItineraries    int        `json:"max_itineraries"`
	StrictOrdering    bool       `json:"strict_ordering"`

	DetourWeight           *float64 `json:"detour_weight"`
	TransferPenaltyMinutes *float64 `json:"transfer_penalty_minutes"`
}

// QueueMatchRequest is the POST /matches/queue body. Queued runs are keyed
// by corridor id; the worker resolves everything else.
type QueueMatchRequest struct {
	CorridorID string     `json:"corridor_id"`
	DepartAt   *time.Time `json:"depart_at"`
}

type QueueMatchResponse struct {
	RequestID  string    `json:"request_id"`
	CorridorID string    `json:"corridor_id"`
	DepartAt   time.Time `json:"depart_at"`
}

type LegResponse struct {
	Mode           string    `json:"mode"`
	FromName       string    `json:"from_name"`
	FromStopID     string    `json:"from_stop_id,omitempty"`
	ToName         string    `json:"to_name"`
	ToStopID       string    `json:"to_stop_id,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	DistanceMeters float64   `json:"distance_meters"`
	TripID         string    `json:"trip_id,omitempty"`
	RouteID        string    `json:"route_id,omitempty"`
}

type ScoredRouteResponse struct {
	Rank                   int           `json:"rank"`
	Score                  float64       `json:"score"`
	DurationMinutes        float64       `json:"duration_minutes"`
	DetourPenaltyMinutes   float64       `json:"detour_penalty_minutes"`
	TransferPenaltyMinutes float64       `json:"transfer_penalty_minutes"`
	DetourRatio            float64       `json:"detour_ratio"`
	RouteDistanceKm        float64       `json:"route_distance_km"`
	StraightLineKm         float64       `json:"straight_line_km"`
	TransferCount          int           `json:"transfer_count"`
	StartTime              time.Time     `json:"start_time"`
	EndTime                time.Time     `json:"end_time"`
	Legs                   []LegResponse `json:"legs"`
}

type MatchResponse struct {
	ResultID     string                `json:"result_id"`
	CorridorID   string                `json:"corridor_id"`
	RequestedAt  time.Time             `json:"requested_at"`
	DepartAt     time.Time             `json:"depart_at"`
	PlannedCount int                   `json:"planned_count"`
	ScoredCount  int                   `json:"scored_count"`
	FailedCount  int                   `json:"failed_count"`
	Routes       []ScoredRouteResponse `json:"routes"`
	Failures     []string              `json:"failures"`
}

// MatchSummaryResponse is the list form: counts without routes.
type MatchSummaryResponse struct {
	ResultID     string    `json:"result_id"`
	CorridorID   string    `json:"corridor_id"`
	RequestedAt  time.Time `json:"requested_at"`
	DepartAt     time.Time `json:"depart_at"`
	PlannedCount int       `json:"planned_count"`
	ScoredCount  int       `json:"scored_count"`
	FailedCount  int       `json:"failed_count"`
}

type ListMatchesResponse struct {
	Results []MatchSummaryResponse `json:"results"`
}

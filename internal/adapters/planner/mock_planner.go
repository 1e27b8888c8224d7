package planner

import (
	"context"
	"corridor-match-service/internal/ports"
	"fmt"
)

// MockPlanner serves canned plan responses and stop locations in tests.
type MockPlanner struct {
	Itineraries []ports.PlannedItinerary
	Stops       map[string]ports.StopLocation
	PlanErr     error

	PlanCalls []ports.TripQuery
}

func (m *MockPlanner) PlanItineraries(ctx context.Context, q ports.TripQuery) ([]ports.PlannedItinerary, error) {
	m.PlanCalls = append(m.PlanCalls, q)
	if m.PlanErr != nil {
		return nil, m.PlanErr
	}
	return m.Itineraries, nil
}

func (m *MockPlanner) LookupStop(ctx context.Context, stopID string) (ports.StopLocation, error) {
	loc, ok := m.Stops[stopID]
	if !ok {
		return ports.StopLocation{}, fmt.Errorf("missing stop %q: %w", stopID, ports.ErrNotFound)
	}
	return loc, nil
}

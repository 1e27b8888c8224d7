package services

import (
	"corridor-match-service/internal/domain"
	"errors"
	"math"
	"testing"
	"time"
)

func testLeg(mode domain.TransportMode, start, end time.Time, meters float64) domain.Leg {
	return domain.Leg{
		Mode:           mode,
		From:           domain.Place{Name: "A"},
		To:             domain.Place{Name: "B"},
		StartTime:      start,
		EndTime:        end,
		DistanceMeters: meters,
	}
}

func TestAggregateLegsEmpty(t *testing.T) {
	_, err := AggregateLegs(nil)
	if !errors.Is(err, domain.ErrEmptyItinerary) {
		t.Fatalf("expected ErrEmptyItinerary, got %v", err)
	}
}

func TestAggregateLegsMissingDistance(t *testing.T) {
	base := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	legs := []domain.Leg{
		testLeg(domain.ModeRail, base, base.Add(25*time.Minute), 8000),
		testLeg(domain.ModeBus, base.Add(25*time.Minute), base.Add(40*time.Minute), 0),
	}

	_, err := AggregateLegs(legs)
	if !errors.Is(err, domain.ErrMissingDistance) {
		t.Fatalf("expected ErrMissingDistance, got %v", err)
	}
}

func TestAggregateLegsTotals(t *testing.T) {
	base := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	legs := []domain.Leg{
		testLeg(domain.ModeRail, base, base.Add(25*time.Minute), 8000),
		testLeg(domain.ModeBus, base.Add(25*time.Minute), base.Add(40*time.Minute), 7000),
	}

	agg, err := AggregateLegs(legs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(agg.RouteDistanceKm-15.0) > 1e-9 {
		t.Errorf("route distance = %v km, want 15", agg.RouteDistanceKm)
	}
	if agg.TransferCount != 1 {
		t.Errorf("transfers = %d, want 1", agg.TransferCount)
	}
	if math.Abs(agg.DurationMinutes-40.0) > 1e-9 {
		t.Errorf("duration = %v min, want 40", agg.DurationMinutes)
	}
}

func TestAggregateLegsIncludesWaitTime(t *testing.T) {
	base := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	// 10 minute ride, 10 minute wait, 10 minute ride.
	legs := []domain.Leg{
		testLeg(domain.ModeRail, base, base.Add(10*time.Minute), 5000),
		testLeg(domain.ModeRail, base.Add(20*time.Minute), base.Add(30*time.Minute), 5000),
	}

	agg, err := AggregateLegs(legs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(agg.DurationMinutes-30.0) > 1e-9 {
		t.Errorf("duration = %v min, want 30 (wait between legs counts)", agg.DurationMinutes)
	}
}

func TestAggregateLegsSingleLegNoTransfers(t *testing.T) {
	base := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	legs := []domain.Leg{
		testLeg(domain.ModeRail, base, base.Add(30*time.Minute), 10000),
	}

	agg, err := AggregateLegs(legs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.TransferCount != 0 {
		t.Errorf("transfers = %d, want 0", agg.TransferCount)
	}
}

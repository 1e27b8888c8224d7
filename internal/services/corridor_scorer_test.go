package services

import (
	"corridor-match-service/internal/domain"
	"errors"
	"math"
	"testing"
	"time"
)

// A ~10 km corridor due north along the prime meridian. 0.0899321 degrees of
// latitude is 10 km on the 6371 km sphere to within a metre.
var (
	corridorOrigin = domain.Coordinates{Lat: 0, Lon: 0}
	corridorDest   = domain.Coordinates{Lat: 0.0899321, Lon: 0}
)

func singleLegItinerary(start time.Time, minutes int, meters float64) domain.Itinerary {
	end := start.Add(time.Duration(minutes) * time.Minute)
	leg := testLeg(domain.ModeRail, start, end, meters)
	return domain.Itinerary{Legs: []domain.Leg{leg}, StartTime: start, EndTime: end}
}

func TestScoreItineraryDirectRoute(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	it := singleLegItinerary(start, 30, 10000)

	score, err := ScoreItinerary(it, corridorOrigin, corridorDest, "LDS-MAN", domain.DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(score.Score-30.0) > 1e-3 {
		t.Errorf("score = %v, want 30", score.Score)
	}
	if score.DetourPenaltyMinutes != 0 {
		t.Errorf("detour penalty = %v, want 0 for a direct route", score.DetourPenaltyMinutes)
	}
	if score.TransferPenaltyMinutes != 0 {
		t.Errorf("transfer penalty = %v, want 0 for a single leg", score.TransferPenaltyMinutes)
	}
	if score.CorridorID != "LDS-MAN" {
		t.Errorf("corridor id = %q, want LDS-MAN", score.CorridorID)
	}
	if score.DetourRatio < 1.0 {
		t.Errorf("detour ratio = %v, must be at least 1", score.DetourRatio)
	}
}

func TestScoreItineraryDetourAndTransfer(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	legs := []domain.Leg{
		testLeg(domain.ModeRail, start, start.Add(25*time.Minute), 8000),
		testLeg(domain.ModeBus, start.Add(25*time.Minute), start.Add(40*time.Minute), 7000),
	}
	it := domain.Itinerary{Legs: legs, StartTime: start, EndTime: start.Add(40 * time.Minute)}

	w := domain.ScoringWeights{DetourWeight: 0.5, TransferPenaltyMinutes: 10}
	score, err := ScoreItinerary(it, corridorOrigin, corridorDest, "LDS-MAN", w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 15 km over a 10 km corridor: ratio 1.5, detour (1.5-1)*40*0.5 = 10,
	// transfer 1*10 = 10, total 40+10+10 = 60.
	if math.Abs(score.DetourRatio-1.5) > 1e-3 {
		t.Errorf("detour ratio = %v, want 1.5", score.DetourRatio)
	}
	if math.Abs(score.DetourPenaltyMinutes-10.0) > 1e-3 {
		t.Errorf("detour penalty = %v, want 10", score.DetourPenaltyMinutes)
	}
	if math.Abs(score.TransferPenaltyMinutes-10.0) > 1e-9 {
		t.Errorf("transfer penalty = %v, want 10", score.TransferPenaltyMinutes)
	}
	if math.Abs(score.Score-60.0) > 1e-3 {
		t.Errorf("score = %v, want 60", score.Score)
	}
}

func TestScoreItineraryIdenticalEndpoints(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	it := singleLegItinerary(start, 15, 2000)

	score, err := ScoreItinerary(it, corridorOrigin, corridorOrigin, "LOOP", domain.DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score.DetourRatio != 1.0 {
		t.Errorf("detour ratio = %v, want 1.0 when origin equals destination", score.DetourRatio)
	}
	if score.DetourPenaltyMinutes != 0 {
		t.Errorf("detour penalty = %v, want 0", score.DetourPenaltyMinutes)
	}
	if math.Abs(score.Score-15.0) > 1e-9 {
		t.Errorf("score = %v, want 15", score.Score)
	}
}

func TestScoreItineraryMissingDistance(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	it := singleLegItinerary(start, 30, 0)

	_, err := ScoreItinerary(it, corridorOrigin, corridorDest, "LDS-MAN", domain.DefaultWeights())
	if !errors.Is(err, domain.ErrMissingDistance) {
		t.Fatalf("expected ErrMissingDistance, got %v", err)
	}
}

func TestScoreItineraryShorterThanStraightLine(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	it := singleLegItinerary(start, 20, 5000)

	score, err := ScoreItinerary(it, corridorOrigin, corridorDest, "LDS-MAN", domain.DefaultWeights())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score.DetourRatio != 1.0 {
		t.Errorf("detour ratio = %v, want clamp to 1.0", score.DetourRatio)
	}
	if score.DetourPenaltyMinutes != 0 {
		t.Errorf("detour penalty = %v, want 0", score.DetourPenaltyMinutes)
	}
}

func TestScoreItineraryInvalidEndpoint(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	it := singleLegItinerary(start, 30, 10000)

	bad := domain.Coordinates{Lat: 91, Lon: 0}
	_, err := ScoreItinerary(it, bad, corridorDest, "LDS-MAN", domain.DefaultWeights())
	if !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

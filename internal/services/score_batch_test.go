package services

import (
	"corridor-match-service/internal/domain"
	"errors"
	"testing"
	"time"
)

func TestScoreBatchIsolatesFailures(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	batch := []domain.Itinerary{
		singleLegItinerary(start, 30, 10000),
		singleLegItinerary(start.Add(10*time.Minute), 35, 0), // no distance
		singleLegItinerary(start.Add(20*time.Minute), 45, 12000),
	}

	routes, failures := ScoreBatch(batch, corridorOrigin, corridorDest, "LDS-MAN", domain.DefaultWeights())

	if len(routes) != 2 {
		t.Fatalf("expected 2 ranked routes, got %d", len(routes))
	}
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].Index != 1 {
		t.Errorf("failure index = %d, want 1", failures[0].Index)
	}
	if !errors.Is(failures[0].Err, domain.ErrMissingDistance) {
		t.Errorf("failure err = %v, want ErrMissingDistance", failures[0].Err)
	}
}

func TestScoreBatchRanksResults(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	// Input deliberately worst-first.
	batch := []domain.Itinerary{
		singleLegItinerary(start, 50, 10000),
		singleLegItinerary(start, 30, 10000),
		singleLegItinerary(start, 40, 10000),
	}

	routes, failures := ScoreBatch(batch, corridorOrigin, corridorDest, "LDS-MAN", domain.DefaultWeights())
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if len(routes) != 3 {
		t.Fatalf("expected 3 routes, got %d", len(routes))
	}

	for i := 1; i < len(routes); i++ {
		if routes[i-1].Score.Score > routes[i].Score.Score {
			t.Fatalf("routes not in ascending score order: %v then %v",
				routes[i-1].Score.Score, routes[i].Score.Score)
		}
	}
	if routes[0].Score.DurationMinutes != 30 {
		t.Errorf("best route duration = %v, want 30", routes[0].Score.DurationMinutes)
	}
}

func TestScoreBatchAllFail(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	batch := []domain.Itinerary{
		singleLegItinerary(start, 30, 0),
		{}, // no legs at all
	}

	routes, failures := ScoreBatch(batch, corridorOrigin, corridorDest, "LDS-MAN", domain.DefaultWeights())
	if len(routes) != 0 {
		t.Fatalf("expected no routes, got %d", len(routes))
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failures))
	}
	if failures[0].Index != 0 || failures[1].Index != 1 {
		t.Errorf("failures out of input order: %d, %d", failures[0].Index, failures[1].Index)
	}
	if !errors.Is(failures[1].Err, domain.ErrEmptyItinerary) {
		t.Errorf("failure err = %v, want ErrEmptyItinerary", failures[1].Err)
	}
}

func TestScoreBatchEmpty(t *testing.T) {
	routes, failures := ScoreBatch(nil, corridorOrigin, corridorDest, "LDS-MAN", domain.DefaultWeights())
	if len(routes) != 0 || len(failures) != 0 {
		t.Fatalf("expected empty outputs, got %d routes and %d failures", len(routes), len(failures))
	}
}

func TestScoreBatchDeterministicAcrossRuns(t *testing.T) {
	start := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	// Two itineraries with identical scores; the earlier-start one must come
	// first on every run regardless of goroutine scheduling.
	batch := []domain.Itinerary{
		singleLegItinerary(start.Add(15*time.Minute), 30, 10000),
		singleLegItinerary(start, 30, 10000),
	}

	for run := 0; run < 20; run++ {
		routes, failures := ScoreBatch(batch, corridorOrigin, corridorDest, "LDS-MAN", domain.DefaultWeights())
		if len(failures) != 0 {
			t.Fatalf("unexpected failures: %v", failures)
		}
		if !routes[0].Itinerary.StartTime.Equal(start) {
			t.Fatalf("run %d: earlier-start itinerary not ranked first", run)
		}
	}
}

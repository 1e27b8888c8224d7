package services

import (
	"context"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/ports"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"
)

// MatchCorridorRequest describes one corridor match run. Either Corridor is
// set, or both stop IDs are, in which case the endpoints are resolved
// through the planner's stop lookup.
//
// Weights carries the deployment defaults. Corridor overrides apply on top
// of those, and the optional per-request overrides apply last.
type MatchCorridorRequest struct {
	RequestID         string
	Corridor          *domain.Corridor
	OriginStopID      string
	DestinationStopID string
	DepartAt          time.Time
	MaxItineraries    int
	Weights           domain.ScoringWeights
	StrictOrdering    bool

	DetourWeight           *float64
	TransferPenaltyMinutes *float64
}

func (r MatchCorridorRequest) effectiveWeights() domain.ScoringWeights {
	w := r.Weights
	if r.Corridor != nil {
		w = r.Corridor.Weights(w)
	}
	if r.DetourWeight != nil {
		w.DetourWeight = *r.DetourWeight
	}
	if r.TransferPenaltyMinutes != nil {
		w.TransferPenaltyMinutes = *r.TransferPenaltyMinutes
	}
	return w
}

type indexedFailure struct {
	index int
	msg   string
}

// MatchCorridor runs one end-to-end corridor match: resolve the corridor
// endpoints, query the trip planner, build and score the candidates, persist
// the ranked result and announce it on the event bus.
//
// Planner and repository errors fail the run. Per-itinerary problems do not;
// they are recorded on the result so callers can surface "N of M routes
// could not be evaluated". Publishing is best effort: a result that is
// already stored is not discarded because the announcement failed.
func MatchCorridor(
	ctx context.Context,
	req MatchCorridorRequest,
	planner ports.TripPlanner,
	repo ports.MatchRepository,
	bus ports.EventPublisher,
) (*domain.MatchResult, error) {
	corridorID, origin, destination, weights, err := resolveEndpoints(ctx, req, planner)
	if err != nil {
		return nil, fmt.Errorf("match corridor: %w", err)
	}

	planned, err := planner.PlanItineraries(ctx, ports.TripQuery{
		From:           origin,
		To:             destination,
		DepartAt:       req.DepartAt,
		MaxItineraries: req.MaxItineraries,
	})
	if err != nil {
		return nil, fmt.Errorf("match corridor: plan itineraries for %q: %w", corridorID, err)
	}

	// Build failures and scoring failures are both per-itinerary data, keyed
	// by position in the planner's response.
	var failed []indexedFailure
	plannedIndex := make([]int, 0, len(planned))
	batch := make([]domain.Itinerary, 0, len(planned))
	for i, p := range planned {
		it, err := BuildItinerary(p, req.StrictOrdering)
		if err != nil {
			failed = append(failed, indexedFailure{index: i, msg: fmt.Sprintf("itinerary %d: %v", i, err)})
			continue
		}
		plannedIndex = append(plannedIndex, i)
		batch = append(batch, it)
	}

	routes, scoreFailures := ScoreBatch(batch, origin, destination, corridorID, weights)
	for _, f := range scoreFailures {
		i := plannedIndex[f.Index]
		failed = append(failed, indexedFailure{index: i, msg: fmt.Sprintf("itinerary %d: %v", i, f.Err)})
	}
	slices.SortFunc(failed, func(a, b indexedFailure) int { return a.index - b.index })

	failures := make([]string, 0, len(failed))
	for _, f := range failed {
		failures = append(failures, f.msg)
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	result := domain.MatchResult{
		ID:           requestID,
		CorridorID:   corridorID,
		RequestedAt:  time.Now().UTC(),
		DepartAt:     req.DepartAt,
		PlannedCount: len(planned),
		ScoredCount:  len(routes),
		FailedCount:  len(failures),
		Routes:       routes,
		Failures:     failures,
	}

	if err := repo.SaveResult(ctx, result); err != nil {
		return nil, fmt.Errorf("match corridor: save result %q: %w", result.ID, err)
	}

	if bus != nil {
		ev := ports.MatchResultEvent{
			RequestID:   result.ID,
			CorridorID:  result.CorridorID,
			ResultID:    result.ID,
			ScoredCount: result.ScoredCount,
			FailedCount: result.FailedCount,
		}
		if err := bus.PublishMatchResult(ctx, ev); err != nil {
			log.Printf("op=match_corridor corridor=%s result=%s msg=\"publish result failed\" err=%v",
				result.CorridorID, result.ID, err)
		}
	}

	return &result, nil
}

// resolveEndpoints yields the corridor label, endpoint coordinates and
// effective weights for the run.
func resolveEndpoints(
	ctx context.Context,
	req MatchCorridorRequest,
	planner ports.TripPlanner,
) (string, domain.Coordinates, domain.Coordinates, domain.ScoringWeights, error) {
	if req.Corridor != nil {
		c := *req.Corridor
		return c.ID, c.Origin, c.Destination, req.effectiveWeights(), nil
	}

	if req.OriginStopID == "" || req.DestinationStopID == "" {
		return "", domain.Coordinates{}, domain.Coordinates{}, domain.ScoringWeights{},
			fmt.Errorf("neither corridor nor both stop ids given")
	}

	from, err := planner.LookupStop(ctx, req.OriginStopID)
	if err != nil {
		return "", domain.Coordinates{}, domain.Coordinates{}, domain.ScoringWeights{},
			fmt.Errorf("lookup origin stop %q: %w", req.OriginStopID, err)
	}
	to, err := planner.LookupStop(ctx, req.DestinationStopID)
	if err != nil {
		return "", domain.Coordinates{}, domain.Coordinates{}, domain.ScoringWeights{},
			fmt.Errorf("lookup destination stop %q: %w", req.DestinationStopID, err)
	}

	corridorID := req.OriginStopID + "->" + req.DestinationStopID
	return corridorID, from.Position, to.Position, req.effectiveWeights(), nil
}

package services

import (
	"corridor-match-service/internal/domain"
	"sync"
)

// ScoreFailure records one itinerary that could not be scored. Index refers
// to the itinerary's position in the input batch.
type ScoreFailure struct {
	Index int
	Err   error
}

type scoreOutcome struct {
	index int
	route domain.ScoredRoute
	err   error
}

// ScoreBatch scores every itinerary in the batch independently and returns
// the scorable ones ranked plus a failure record per itinerary that was not.
//
// Itineraries are scored concurrently under a small bound; one malformed
// itinerary never prevents scoring of the rest. Output is deterministic:
// routes are ranked by RankRoutes and failures come back in input order.
// Scoring is in-memory and never blocks, so there is nothing to cancel.
func ScoreBatch(
	batch []domain.Itinerary,
	origin domain.Coordinates,
	destination domain.Coordinates,
	corridorID string,
	w domain.ScoringWeights,
) ([]domain.ScoredRoute, []ScoreFailure) {
	if len(batch) == 0 {
		return []domain.ScoredRoute{}, nil
	}

	sem := make(chan struct{}, 5)
	outcomes := make(chan scoreOutcome, len(batch))
	var wg sync.WaitGroup

	for i, it := range batch {
		wg.Add(1)
		go func(i int, it domain.Itinerary) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			score, err := ScoreItinerary(it, origin, destination, corridorID, w)
			if err != nil {
				outcomes <- scoreOutcome{index: i, err: err}
				return
			}
			outcomes <- scoreOutcome{index: i, route: domain.ScoredRoute{Itinerary: it, Score: score}}
		}(i, it)
	}

	wg.Wait()
	close(outcomes)

	// Re-order by input index before ranking so equal-score ties resolve the
	// same way no matter how the goroutines interleaved.
	byIndex := make([]scoreOutcome, len(batch))
	for out := range outcomes {
		byIndex[out.index] = out
	}

	scored := make([]domain.ScoredRoute, 0, len(batch))
	var failures []ScoreFailure
	for _, out := range byIndex {
		if out.err != nil {
			failures = append(failures, ScoreFailure{Index: out.index, Err: out.err})
			continue
		}
		scored = append(scored, out.route)
	}

	return RankRoutes(scored), failures
}

package services

import (
	"corridor-match-service/internal/domain"
	"slices"
)

// RankRoutes orders scored routes by score ascending, best first, into a new
// slice; the input is left untouched.
//
// Equal scores are broken by fewer transfers, then earlier itinerary start,
// then original input order. The stable sort makes the output deterministic
// for identical inputs.
func RankRoutes(routes []domain.ScoredRoute) []domain.ScoredRoute {
	ranked := make([]domain.ScoredRoute, len(routes))
	copy(ranked, routes)

	slices.SortStableFunc(ranked, func(a, b domain.ScoredRoute) int {
		if a.Score.Score < b.Score.Score {
			return -1
		}
		if a.Score.Score > b.Score.Score {
			return 1
		}
		if a.Score.TransferCount < b.Score.TransferCount {
			return -1
		}
		if a.Score.TransferCount > b.Score.TransferCount {
			return 1
		}
		if a.Itinerary.StartTime.Before(b.Itinerary.StartTime) {
			return -1
		}
		if b.Itinerary.StartTime.Before(a.Itinerary.StartTime) {
			return 1
		}
		return 0
	})

	return ranked
}

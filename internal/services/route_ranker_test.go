package services

import (
	"corridor-match-service/internal/domain"
	"testing"
	"time"
)

func scoredRoute(tag string, score float64, transfers int, start time.Time) domain.ScoredRoute {
	return domain.ScoredRoute{
		Itinerary: domain.Itinerary{StartTime: start, EndTime: start.Add(30 * time.Minute)},
		Score: domain.CorridorScore{
			CorridorID:    tag,
			Score:         score,
			TransferCount: transfers,
		},
	}
}

func rankedTags(routes []domain.ScoredRoute) []string {
	tags := make([]string, 0, len(routes))
	for _, r := range routes {
		tags = append(tags, r.Score.CorridorID)
	}
	return tags
}

func TestRankRoutesOrdersByScoreAscending(t *testing.T) {
	base := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	in := []domain.ScoredRoute{
		scoredRoute("mid", 45, 0, base),
		scoredRoute("best", 30, 0, base),
		scoredRoute("worst", 60, 0, base),
	}

	out := RankRoutes(in)

	want := []string{"best", "mid", "worst"}
	for i, tag := range want {
		if out[i].Score.CorridorID != tag {
			t.Errorf("out[%d] = %q, want %q", i, out[i].Score.CorridorID, tag)
		}
	}

	// The input slice must be left as it was.
	if in[0].Score.CorridorID != "mid" || in[2].Score.CorridorID != "worst" {
		t.Error("RankRoutes mutated its input")
	}
}

func TestRankRoutesTieBreaks(t *testing.T) {
	base := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		in        []domain.ScoredRoute
		wantFirst string
	}{
		{
			name: "fewer transfers wins an equal score",
			in: []domain.ScoredRoute{
				scoredRoute("two-changes", 50, 2, base),
				scoredRoute("one-change", 50, 1, base),
			},
			wantFirst: "one-change",
		},
		{
			name: "earlier start wins equal score and transfers",
			in: []domain.ScoredRoute{
				scoredRoute("later", 50, 1, base.Add(10*time.Minute)),
				scoredRoute("earlier", 50, 1, base),
			},
			wantFirst: "earlier",
		},
		{
			name: "input order wins a full tie",
			in: []domain.ScoredRoute{
				scoredRoute("first", 50, 1, base),
				scoredRoute("second", 50, 1, base),
			},
			wantFirst: "first",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := RankRoutes(tc.in)
			if len(out) != len(tc.in) {
				t.Fatalf("expected %d routes, got %d", len(tc.in), len(out))
			}
			if got := out[0].Score.CorridorID; got != tc.wantFirst {
				t.Errorf("first ranked route = %q, want %q", got, tc.wantFirst)
			}
		})
	}
}

func TestRankRoutesIdempotent(t *testing.T) {
	base := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	in := []domain.ScoredRoute{
		scoredRoute("a", 50, 2, base),
		scoredRoute("b", 50, 1, base),
		scoredRoute("c", 30, 0, base.Add(5*time.Minute)),
	}

	once := rankedTags(RankRoutes(in))
	twice := rankedTags(RankRoutes(RankRoutes(in)))

	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("ranking is not idempotent: %v vs %v", once, twice)
		}
	}
}

func TestRankRoutesEmpty(t *testing.T) {
	out := RankRoutes(nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty slice, got %v", out)
	}
}

package domain

import (
	"testing"
	"time"
)

func TestItineraryTransfers(t *testing.T) {
	leg := func() Leg { return Leg{Mode: ModeRail, DistanceMeters: 1000} }

	cases := []struct {
		name string
		legs []Leg
		want int
	}{
		{"empty", nil, 0},
		{"single leg", []Leg{leg()}, 0},
		{"two legs", []Leg{leg(), leg()}, 1},
		{"four legs", []Leg{leg(), leg(), leg(), leg()}, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			it := Itinerary{Legs: tc.legs}
			if got := it.Transfers(); got != tc.want {
				t.Errorf("Transfers() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestItineraryDuration(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	it := Itinerary{
		StartTime: start,
		EndTime:   start.Add(42 * time.Minute),
	}

	if got := it.Duration(); got != 42*time.Minute {
		t.Errorf("Duration() = %v, want 42m", got)
	}
}

func TestItineraryModeSummary(t *testing.T) {
	it := Itinerary{Legs: []Leg{
		{Mode: ModeWalk},
		{Mode: ModeRail},
		{Mode: ModeWalk},
	}}

	if got := it.ModeSummary(); got != "WALK>RAIL>WALK" {
		t.Errorf("ModeSummary() = %q, want %q", got, "WALK>RAIL>WALK")
	}
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in   string
		want TransportMode
	}{
		{"RAIL", ModeRail},
		{"rail", ModeRail},
		{" Bus ", ModeBus},
		{"SUBWAY", ModeSubway},
		{"", ModeUnknown},
		{"TELEPORT", ModeUnknown},
	}

	for _, tc := range cases {
		if got := ParseMode(tc.in); got != tc.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCorridorWeights(t *testing.T) {
	base := DefaultWeights()

	plain := Corridor{ID: "LDS-MAN"}
	if w := plain.Weights(base); w != base {
		t.Errorf("corridor without overrides changed weights: %+v", w)
	}

	dw := 0.8
	tp := 5.0
	tuned := Corridor{ID: "LDS-KGX", DetourWeight: &dw, TransferPenaltyMinutes: &tp}
	w := tuned.Weights(base)
	if w.DetourWeight != 0.8 {
		t.Errorf("DetourWeight = %v, want 0.8", w.DetourWeight)
	}
	if w.TransferPenaltyMinutes != 5 {
		t.Errorf("TransferPenaltyMinutes = %v, want 5", w.TransferPenaltyMinutes)
	}
}

package domain

import "time"

// Itinerary is an ordered, non-empty sequence of legs from origin to
// destination. Its start and end always derive from the first and last leg,
// so the timing that gets scored is the timing of the legs themselves; an
// upstream itinerary-level duration field is never trusted over the legs.
type Itinerary struct {
	Legs      []Leg
	StartTime time.Time
	EndTime   time.Time
}

// Duration is the end-to-end travel time, including waits between legs.
func (it Itinerary) Duration() time.Duration {
	return it.EndTime.Sub(it.StartTime)
}

// Transfers counts leg junctions: every boundary between two consecutive
// legs is one interchange.
func (it Itinerary) Transfers() int {
	if len(it.Legs) <= 1 {
		return 0
	}
	return len(it.Legs) - 1
}

// ModeSummary renders the leg modes as a compact "WALK>RAIL>WALK" string for
// logs and stored results.
func (it Itinerary) ModeSummary() string {
	s := ""
	for i, l := range it.Legs {
		if i > 0 {
			s += ">"
		}
		s += string(l.Mode)
	}
	return s
}

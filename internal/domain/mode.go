package domain

import "strings"

// TransportMode identifies the vehicle type of a single leg, following the
// mode vocabulary of the upstream trip planner.
type TransportMode string

const (
	ModeWalk    TransportMode = "WALK"
	ModeBicycle TransportMode = "BICYCLE"
	ModeCar     TransportMode = "CAR"
	ModeBus     TransportMode = "BUS"
	ModeCoach   TransportMode = "COACH"
	ModeTram    TransportMode = "TRAM"
	ModeSubway  TransportMode = "SUBWAY"
	ModeRail    TransportMode = "RAIL"
	ModeFerry   TransportMode = "FERRY"
	ModeUnknown TransportMode = "UNKNOWN"
)

// ParseMode maps a planner mode string onto a known TransportMode.
// The score does not depend on the mode, so unrecognized values are kept
// non-fatal and map to ModeUnknown.
func ParseMode(s string) TransportMode {
	m := TransportMode(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case ModeWalk, ModeBicycle, ModeCar, ModeBus, ModeCoach, ModeTram, ModeSubway, ModeRail, ModeFerry:
		return m
	}
	return ModeUnknown
}

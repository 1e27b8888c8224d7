package domain

// Corridor is a named origin-destination travel relation used to group and
// compare itineraries, e.g. "LDS-MAN" for Leeds to Manchester.
type Corridor struct {
	ID                string
	Name              string
	OriginStopID      string
	DestinationStopID string
	Origin            Coordinates
	Destination       Coordinates

	// Optional per-corridor overrides; nil falls back to the deployment
	// defaults.
	DetourWeight           *float64
	TransferPenaltyMinutes *float64
}

// Weights resolves the effective scoring weights for this corridor on top of
// the given deployment defaults.
func (c Corridor) Weights(base ScoringWeights) ScoringWeights {
	w := base
	if c.DetourWeight != nil {
		w.DetourWeight = *c.DetourWeight
	}
	if c.TransferPenaltyMinutes != nil {
		w.TransferPenaltyMinutes = *c.TransferPenaltyMinutes
	}
	return w
}

package dto

type CorridorResponse struct {
	CorridorID        string  `json:"corridor_id"`
	Name              string  `json:"name"`
	OriginStopID      string  `json:"origin_stop_id"`
	DestinationStopID string  `json:"destination_stop_id"`
	OriginLat         float64 `json:"origin_lat"`
	OriginLon         float64 `json:"origin_lon"`
	DestinationLat    float64 `json:"destination_lat"`
	DestinationLon    float64 `json:"destination_lon"`

	DetourWeight           *float64 `json:"detour_weight,omitempty"`
	TransferPenaltyMinutes *float64 `json:"transfer_penalty_minutes,omitempty"`
}

type ListCorridorsResponse struct {
	Corridors []CorridorResponse `json:"corridors"`
}

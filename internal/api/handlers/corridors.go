package handlers

import (
	"corridor-match-service/internal/api/dto"
	"corridor-match-service/internal/ports"
	"log"
	"net/http"
)

// CorridorHandler exposes read-only corridor retrieval endpoints.
type CorridorHandler struct {
	Repo ports.CorridorRepository
}

func (h *CorridorHandler) List(w http.ResponseWriter, r *http.Request) {
	corridors, err := h.Repo.ListCorridors(r.Context())
	if err != nil {
		log.Printf("list corridors failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListCorridorsResponse{
		Corridors: make([]dto.CorridorResponse, 0, len(corridors)),
	}
	for _, c := range corridors {
		res.Corridors = append(res.Corridors, dto.CorridorResponse{
			CorridorID:             c.ID,
			Name:                   c.Name,
			OriginStopID:           c.OriginStopID,
			DestinationStopID:      c.DestinationStopID,
			OriginLat:              c.Origin.Lat,
			OriginLon:              c.Origin.Lon,
			DestinationLat:         c.Destination.Lat,
			DestinationLon:         c.Destination.Lon,
			DetourWeight:           c.DetourWeight,
			TransferPenaltyMinutes: c.TransferPenaltyMinutes,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

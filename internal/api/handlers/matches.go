package handlers

import (
	"corridor-match-service/internal/api/dto"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/ports"
	"corridor-match-service/internal/services"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MatchHandler exposes corridor match runs and stored results.
type MatchHandler struct {
	Corridors ports.CorridorRepository
	Matches   ports.MatchRepository
	Planner   ports.TripPlanner
	Bus       ports.EventPublisher
	Defaults  domain.ScoringWeights
}

// Run executes a corridor match synchronously and returns the ranked routes.
// It coordinates corridor lookup, input clamping, and the match service.
func (h *MatchHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.MatchRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	corridorID := strings.TrimSpace(req.CorridorID)
	originStop := strings.TrimSpace(req.OriginStopID)
	destinationStop := strings.TrimSpace(req.DestinationStopID)

	var corridor *domain.Corridor
	switch {
	case corridorID != "":
		c, err := h.Corridors.GetCorridor(r.Context(), corridorID)
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "unknown corridor")
			return
		}
		if err != nil {
			log.Printf("get corridor failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		corridor = &c
	case originStop != "" && destinationStop != "":
		// endpoints resolved through the planner's stop lookup
	default:
		writeError(w, r, http.StatusBadRequest, "corridor_id or both origin_stop_id and destination_stop_id are required")
		return
	}

	maxItineraries := req.MaxItineraries
	if maxItineraries == 0 {
		maxItineraries = 5
	}
	if maxItineraries < 1 || maxItineraries > 10 {
		writeError(w, r, http.StatusBadRequest, "max_itineraries must be between 1 and 10")
		return
	}

	if req.DetourWeight != nil && *req.DetourWeight < 0 {
		writeError(w, r, http.StatusBadRequest, "detour_weight must not be negative")
		return
	}
	if req.TransferPenaltyMinutes != nil && *req.TransferPenaltyMinutes < 0 {
		writeError(w, r, http.StatusBadRequest, "transfer_penalty_minutes must not be negative")
		return
	}

	depart := time.Now().UTC()
	if req.DepartAt != nil {
		depart = req.DepartAt.UTC()
	}

	svcReq := services.MatchCorridorRequest{
		Corridor:               corridor,
		OriginStopID:           originStop,
		DestinationStopID:      destinationStop,
		DepartAt:               depart,
		MaxItineraries:         maxItineraries,
		Weights:                h.Defaults,
		StrictOrdering:         req.StrictOrdering,
		DetourWeight:           req.DetourWeight,
		TransferPenaltyMinutes: req.TransferPenaltyMinutes,
	}

	res, err := services.MatchCorridor(r.Context(), svcReq, h.Planner, h.Matches, h.Bus)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "origin or destination stop not found")
			return
		}
		log.Printf("match corridor failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toMatchResponse(*res))
}

// Queue hands a corridor match to the background worker instead of running
// it inline. The returned request id doubles as the result id, so callers
// can poll GET /matches/{id} once the worker has finished.
func (h *MatchHandler) Queue(w http.ResponseWriter, r *http.Request) {
	if h.Bus == nil {
		writeError(w, r, http.StatusServiceUnavailable, "event pipeline is not configured")
		return
	}

	var req dto.QueueMatchRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	corridorID := strings.TrimSpace(req.CorridorID)
	if corridorID == "" {
		writeError(w, r, http.StatusBadRequest, "corridor_id is required")
		return
	}

	if _, err := h.Corridors.GetCorridor(r.Context(), corridorID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "unknown corridor")
			return
		}
		log.Printf("get corridor failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	depart := time.Now().UTC()
	if req.DepartAt != nil {
		depart = req.DepartAt.UTC()
	}

	ev := ports.MatchRequestEvent{
		RequestID:  uuid.NewString(),
		CorridorID: corridorID,
		DepartAt:   depart,
	}
	if err := h.Bus.PublishMatchRequest(r.Context(), ev); err != nil {
		log.Printf("publish match request failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusAccepted, dto.QueueMatchResponse{
		RequestID:  ev.RequestID,
		CorridorID: ev.CorridorID,
		DepartAt:   ev.DepartAt,
	})
}

// Get returns one stored result with its full ranked routes.
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resultID")

	res, err := h.Matches.GetResult(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "result not found")
		return
	}
	if err != nil {
		log.Printf("get result failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, toMatchResponse(res))
}

// List returns recent result summaries for a corridor, newest first.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	corridorID := strings.TrimSpace(r.URL.Query().Get("corridor_id"))
	if corridorID == "" {
		writeError(w, r, http.StatusBadRequest, "corridor_id query parameter is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, r, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	results, err := h.Matches.ListResults(r.Context(), corridorID, limit)
	if err != nil {
		log.Printf("list results failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListMatchesResponse{Results: make([]dto.MatchSummaryResponse, 0, len(results))}
	for _, m := range results {
		res.Results = append(res.Results, dto.MatchSummaryResponse{
			ResultID:     m.ID,
			CorridorID:   m.CorridorID,
			RequestedAt:  m.RequestedAt,
			DepartAt:     m.DepartAt,
			PlannedCount: m.PlannedCount,
			ScoredCount:  m.ScoredCount,
			FailedCount:  m.FailedCount,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func toMatchResponse(m domain.MatchResult) dto.MatchResponse {
	routes := make([]dto.ScoredRouteResponse, 0, len(m.Routes))
	for i, route := range m.Routes {
		legs := make([]dto.LegResponse, 0, len(route.Itinerary.Legs))
		for _, leg := range route.Itinerary.Legs {
			legs = append(legs, dto.LegResponse{
				Mode:           string(leg.Mode),
				FromName:       leg.From.Name,
				FromStopID:     leg.From.StopID,
				ToName:         leg.To.Name,
				ToStopID:       leg.To.StopID,
				StartTime:      leg.StartTime,
				EndTime:        leg.EndTime,
				DistanceMeters: leg.DistanceMeters,
				TripID:         leg.TripID,
				RouteID:        leg.RouteID,
			})
		}

		sc := route.Score
		routes = append(routes, dto.ScoredRouteResponse{
			Rank:                   i,
			Score:                  sc.Score,
			DurationMinutes:        sc.DurationMinutes,
			DetourPenaltyMinutes:   sc.DetourPenaltyMinutes,
			TransferPenaltyMinutes: sc.TransferPenaltyMinutes,
			DetourRatio:            sc.DetourRatio,
			RouteDistanceKm:        sc.RouteDistanceKm,
			StraightLineKm:         sc.StraightLineKm,
			TransferCount:          sc.TransferCount,
			StartTime:              route.Itinerary.StartTime,
			EndTime:                route.Itinerary.EndTime,
			Legs:                   legs,
		})
	}

	failures := m.Failures
	if failures == nil {
		failures = []string{}
	}

	return dto.MatchResponse{
		ResultID:     m.ID,
		CorridorID:   m.CorridorID,
		RequestedAt:  m.RequestedAt,
		DepartAt:     m.DepartAt,
		PlannedCount: m.PlannedCount,
		ScoredCount:  m.ScoredCount,
		FailedCount:  m.FailedCount,
		Routes:       routes,
		Failures:     failures,
	}
}

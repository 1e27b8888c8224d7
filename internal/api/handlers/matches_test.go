package handlers

import (
	"context"
	"corridor-match-service/internal/adapters/planner"
	"corridor-match-service/internal/api/dto"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/ports"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

type stubCorridorRepo struct {
	corridors map[string]domain.Corridor
	listErr   error
}

func (s *stubCorridorRepo) ListCorridors(ctx context.Context) ([]domain.Corridor, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Corridor, 0, len(s.corridors))
	for _, c := range s.corridors {
		out = append(out, c)
	}
	return out, nil
}

func (s *stubCorridorRepo) GetCorridor(ctx context.Context, id string) (domain.Corridor, error) {
	c, ok := s.corridors[id]
	if !ok {
		return domain.Corridor{}, fmt.Errorf("get corridor %q: %w", id, ports.ErrNotFound)
	}
	return c, nil
}

type stubMatchRepo struct {
	saved   []domain.MatchResult
	results map[string]domain.MatchResult
	listErr error
}

func (s *stubMatchRepo) SaveResult(ctx context.Context, res domain.MatchResult) error {
	s.saved = append(s.saved, res)
	return nil
}

func (s *stubMatchRepo) GetResult(ctx context.Context, id string) (domain.MatchResult, error) {
	res, ok := s.results[id]
	if !ok {
		return domain.MatchResult{}, fmt.Errorf("get result %q: %w", id, ports.ErrNotFound)
	}
	return res, nil
}

func (s *stubMatchRepo) ListResults(ctx context.Context, corridorID string, limit int) ([]domain.MatchResult, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.MatchResult, 0, len(s.results))
	for _, res := range s.results {
		if res.CorridorID == corridorID {
			out = append(out, res)
		}
	}
	return out, nil
}

type stubEventPublisher struct {
	requests   []ports.MatchRequestEvent
	results    []ports.MatchResultEvent
	publishErr error
}

func (s *stubEventPublisher) PublishMatchRequest(ctx context.Context, ev ports.MatchRequestEvent) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.requests = append(s.requests, ev)
	return nil
}

func (s *stubEventPublisher) PublishMatchResult(ctx context.Context, ev ports.MatchResultEvent) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.results = append(s.results, ev)
	return nil
}

func handlerCorridor() domain.Corridor {
	return domain.Corridor{
		ID:                "LDS-MAN",
		Name:              "Leeds to Manchester",
		OriginStopID:      "GB:LDS",
		DestinationStopID: "GB:MAN",
		Origin:            domain.Coordinates{Lat: 53.7947, Lon: -1.5491},
		Destination:       domain.Coordinates{Lat: 53.4774, Lon: -2.2309},
	}
}

func directItinerary(start time.Time) ports.PlannedItinerary {
	end := start.Add(49 * time.Minute)
	dist := 69400.0
	return ports.PlannedItinerary{
		StartTimeMs: start.UnixMilli(),
		EndTimeMs:   end.UnixMilli(),
		Legs: []ports.PlannedLeg{
			{
				Mode:           "RAIL",
				From:           ports.PlannedPlace{Name: "Leeds", StopID: "GB:LDS"},
				To:             ports.PlannedPlace{Name: "Manchester Piccadilly", StopID: "GB:MAN"},
				StartTimeMs:    start.UnixMilli(),
				EndTimeMs:      end.UnixMilli(),
				DistanceMeters: &dist,
			},
		},
	}
}

func newMatchHandler(corridors *stubCorridorRepo, matches *stubMatchRepo, mock *planner.MockPlanner) *MatchHandler {
	return &MatchHandler{
		Corridors: corridors,
		Matches:   matches,
		Planner:   mock,
		Defaults:  domain.DefaultWeights(),
	}
}

func postMatch(t *testing.T, h *MatchHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/matches", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Run(rec, req)
	return rec
}

func TestRunMatchValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "invalid json",
			body: `{"corridor_id":`,
			want: "invalid json body",
		},
		{
			name: "unknown field",
			body: `{"corridor_id": "LDS-MAN", "speed": 3}`,
			want: "invalid json body",
		},
		{
			name: "two objects",
			body: `{"corridor_id": "LDS-MAN"}{"corridor_id": "LDS-MAN"}`,
			want: "only one JSON object",
		},
		{
			name: "no corridor or stops",
			body: `{"max_itineraries": 3}`,
			want: "corridor_id or both origin_stop_id and destination_stop_id are required",
		},
		{
			name: "only one stop id",
			body: `{"origin_stop_id": "GB:LDS"}`,
			want: "corridor_id or both origin_stop_id and destination_stop_id are required",
		},
		{
			name: "max itineraries too high",
			body: `{"corridor_id": "LDS-MAN", "max_itineraries": 11}`,
			want: "max_itineraries must be between 1 and 10",
		},
		{
			name: "negative detour weight",
			body: `{"corridor_id": "LDS-MAN", "detour_weight": -0.5}`,
			want: "detour_weight must not be negative",
		},
		{
			name: "negative transfer penalty",
			body: `{"corridor_id": "LDS-MAN", "transfer_penalty_minutes": -1}`,
			want: "transfer_penalty_minutes must not be negative",
		},
	}

	corridors := &stubCorridorRepo{corridors: map[string]domain.Corridor{"LDS-MAN": handlerCorridor()}}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newMatchHandler(corridors, &stubMatchRepo{}, &planner.MockPlanner{})
			rec := postMatch(t, h, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tc.want) {
				t.Errorf("body = %s, want message containing %q", rec.Body.String(), tc.want)
			}
		})
	}
}

func TestRunMatchWithCorridor(t *testing.T) {
	depart := time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC)
	corridors := &stubCorridorRepo{corridors: map[string]domain.Corridor{"LDS-MAN": handlerCorridor()}}
	matches := &stubMatchRepo{}
	mock := &planner.MockPlanner{Itineraries: []ports.PlannedItinerary{directItinerary(depart)}}
	h := newMatchHandler(corridors, matches, mock)

	rec := postMatch(t, h, `{"corridor_id": "LDS-MAN", "depart_at": "2026-01-16T08:00:00Z", "max_itineraries": 3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp dto.MatchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ResultID == "" {
		t.Error("result_id is empty")
	}
	if resp.CorridorID != "LDS-MAN" {
		t.Errorf("corridor_id = %q, want LDS-MAN", resp.CorridorID)
	}
	if resp.PlannedCount != 1 || resp.ScoredCount != 1 || resp.FailedCount != 0 {
		t.Errorf("counts = %d/%d/%d, want 1/1/0", resp.PlannedCount, resp.ScoredCount, resp.FailedCount)
	}
	if len(resp.Routes) != 1 {
		t.Fatalf("len(routes) = %d, want 1", len(resp.Routes))
	}
	route := resp.Routes[0]
	if route.Rank != 0 || route.Score <= 0 || route.TransferCount != 0 {
		t.Errorf("route = %+v, want rank 0, positive score, 0 transfers", route)
	}
	if len(route.Legs) != 1 || route.Legs[0].Mode != "RAIL" {
		t.Errorf("legs = %+v, want one RAIL leg", route.Legs)
	}

	if len(matches.saved) != 1 {
		t.Errorf("saved results = %d, want 1", len(matches.saved))
	}
	if len(mock.PlanCalls) != 1 || mock.PlanCalls[0].MaxItineraries != 3 {
		t.Errorf("plan calls = %+v, want one call with max 3", mock.PlanCalls)
	}
}

func TestRunMatchEmptyBatchKeepsFailuresArray(t *testing.T) {
	corridors := &stubCorridorRepo{corridors: map[string]domain.Corridor{"LDS-MAN": handlerCorridor()}}
	h := newMatchHandler(corridors, &stubMatchRepo{}, &planner.MockPlanner{})

	rec := postMatch(t, h, `{"corridor_id": "LDS-MAN"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var raw map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"routes", "failures"} {
		v, ok := raw[key]
		if !ok {
			t.Fatalf("response missing %q", key)
		}
		arr, ok := v.([]any)
		if !ok {
			t.Fatalf("%q = %v, want an array, not null", key, v)
		}
		if len(arr) != 0 {
			t.Errorf("%q = %v, want empty", key, arr)
		}
	}
}

func TestRunMatchUnknownCorridor(t *testing.T) {
	h := newMatchHandler(&stubCorridorRepo{}, &stubMatchRepo{}, &planner.MockPlanner{})

	rec := postMatch(t, h, `{"corridor_id": "NO-SUCH"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unknown corridor") {
		t.Errorf("body = %s, want unknown corridor", rec.Body.String())
	}
}

func TestRunMatchUnknownStop(t *testing.T) {
	h := newMatchHandler(&stubCorridorRepo{}, &stubMatchRepo{}, &planner.MockPlanner{})

	rec := postMatch(t, h, `{"origin_stop_id": "GB:NOPE", "destination_stop_id": "GB:MAN"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "stop not found") {
		t.Errorf("body = %s, want stop not found", rec.Body.String())
	}
}

func getWithRouteParam(t *testing.T, h *MatchHandler, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/matches/"+id, nil)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("resultID", id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.Get(rec, req)
	return rec
}

func TestGetResult(t *testing.T) {
	stored := domain.MatchResult{
		ID:           "res-1",
		CorridorID:   "LDS-MAN",
		RequestedAt:  time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC),
		DepartAt:     time.Date(2026, 1, 16, 8, 0, 0, 0, time.UTC),
		PlannedCount: 2,
		ScoredCount:  2,
	}
	matches := &stubMatchRepo{results: map[string]domain.MatchResult{"res-1": stored}}
	h := newMatchHandler(&stubCorridorRepo{}, matches, &planner.MockPlanner{})

	rec := getWithRouteParam(t, h, "res-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp dto.MatchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ResultID != "res-1" || resp.PlannedCount != 2 {
		t.Errorf("response = %+v", resp)
	}

	rec = getWithRouteParam(t, h, "missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status for missing = %d, want 404", rec.Code)
	}
}

func TestListResultsValidation(t *testing.T) {
	h := newMatchHandler(&stubCorridorRepo{}, &stubMatchRepo{}, &planner.MockPlanner{})

	req := httptest.NewRequest(http.MethodGet, "/matches", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status without corridor_id = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/matches?corridor_id=LDS-MAN&limit=0", nil)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status with limit=0 = %d, want 400", rec.Code)
	}
}

func TestListResults(t *testing.T) {
	matches := &stubMatchRepo{results: map[string]domain.MatchResult{
		"res-1": {ID: "res-1", CorridorID: "LDS-MAN", ScoredCount: 2},
		"res-2": {ID: "res-2", CorridorID: "LDS-YRK", ScoredCount: 1},
	}}
	h := newMatchHandler(&stubCorridorRepo{}, matches, &planner.MockPlanner{})

	req := httptest.NewRequest(http.MethodGet, "/matches?corridor_id=LDS-MAN", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dto.ListMatchesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ResultID != "res-1" {
		t.Errorf("results = %+v, want only res-1", resp.Results)
	}
}

func TestQueueMatch(t *testing.T) {
	corridors := &stubCorridorRepo{corridors: map[string]domain.Corridor{"LDS-MAN": handlerCorridor()}}
	bus := &stubEventPublisher{}
	h := newMatchHandler(corridors, &stubMatchRepo{}, &planner.MockPlanner{})
	h.Bus = bus

	depart := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	body := fmt.Sprintf(`{"corridor_id": "LDS-MAN", "depart_at": %q}`, depart.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/matches/queue", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Queue(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body %s)", rec.Code, rec.Body.String())
	}

	var resp dto.QueueMatchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.RequestID == "" {
		t.Error("request_id is empty")
	}
	if resp.CorridorID != "LDS-MAN" {
		t.Errorf("corridor_id = %q, want LDS-MAN", resp.CorridorID)
	}

	if len(bus.requests) != 1 {
		t.Fatalf("published %d request events, want 1", len(bus.requests))
	}
	ev := bus.requests[0]
	if ev.RequestID != resp.RequestID {
		t.Errorf("event request id = %q, response id = %q", ev.RequestID, resp.RequestID)
	}
	if !ev.DepartAt.Equal(depart) {
		t.Errorf("event depart = %v, want %v", ev.DepartAt, depart)
	}
}

func TestQueueMatchValidation(t *testing.T) {
	corridors := &stubCorridorRepo{corridors: map[string]domain.Corridor{"LDS-MAN": handlerCorridor()}}

	tests := []struct {
		name       string
		bus        ports.EventPublisher
		body       string
		wantStatus int
	}{
		{"no pipeline configured", nil, `{"corridor_id": "LDS-MAN"}`, http.StatusServiceUnavailable},
		{"missing corridor id", &stubEventPublisher{}, `{}`, http.StatusBadRequest},
		{"unknown corridor", &stubEventPublisher{}, `{"corridor_id": "NOPE"}`, http.StatusNotFound},
		{"invalid json", &stubEventPublisher{}, `{"corridor_id":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newMatchHandler(corridors, &stubMatchRepo{}, &planner.MockPlanner{})
			h.Bus = tt.bus
			req := httptest.NewRequest(http.MethodPost, "/matches/queue", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Queue(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

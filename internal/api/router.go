package api

import (
	"corridor-match-service/internal/api/handlers"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/ports"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Deps holds everything the HTTP surface needs. Bus may be nil when no event
// pipeline is configured.
type Deps struct {
	DB        *sql.DB
	Corridors ports.CorridorRepository
	Matches   ports.MatchRepository
	Planner   ports.TripPlanner
	Bus       ports.EventPublisher
	Defaults  domain.ScoringWeights
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	healthHandler := &handlers.HealthHandler{DB: d.DB}
	corridorHandler := &handlers.CorridorHandler{Repo: d.Corridors}
	matchHandler := &handlers.MatchHandler{
		Corridors: d.Corridors,
		Matches:   d.Matches,
		Planner:   d.Planner,
		Bus:       d.Bus,
		Defaults:  d.Defaults,
	}

	r.Get("/health", healthHandler.Health)
	r.Get("/corridors", corridorHandler.List)
	r.Post("/matches", matchHandler.Run)
	r.Post("/matches/queue", matchHandler.Queue)
	r.Get("/matches", matchHandler.List)
	r.Get("/matches/{resultID}", matchHandler.Get)

	return r
}

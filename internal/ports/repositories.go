package ports

import (
	"context"
	"corridor-match-service/internal/domain"
	"errors"
)

// ErrNotFound is returned by repositories when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Contract for reading corridor definitions.
type CorridorRepository interface {
	ListCorridors(ctx context.Context) ([]domain.Corridor, error)
	GetCorridor(ctx context.Context, id string) (domain.Corridor, error)
}

// Contract for persisting and reading back match results.
type MatchRepository interface {
	SaveResult(ctx context.Context, res domain.MatchResult) error
	GetResult(ctx context.Context, id string) (domain.MatchResult, error)
	// ListResults returns the most recent results for a corridor,
	// newest first, capped at limit.
	ListResults(ctx context.Context, corridorID string, limit int) ([]domain.MatchResult, error)
}

// Contract for caching resolved stop locations between runs.
type StopCache interface {
	GetStop(ctx context.Context, stopID string) (StopLocation, bool, error)
	PutStop(ctx context.Context, loc StopLocation) error
}

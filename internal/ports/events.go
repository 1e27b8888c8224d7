package ports

import (
	"context"
	"time"
)

// MatchRequestEvent asks a worker to run a corridor match.
type MatchRequestEvent struct {
	RequestID  string
	CorridorID string
	DepartAt   time.Time
}

// MatchResultEvent announces a completed (or failed) match run.
type MatchResultEvent struct {
	RequestID   string
	CorridorID  string
	ResultID    string
	ScoredCount int
	FailedCount int
	Err         string
}

// Contract for emitting match lifecycle events.
type EventPublisher interface {
	PublishMatchRequest(ctx context.Context, ev MatchRequestEvent) error
	PublishMatchResult(ctx context.Context, ev MatchResultEvent) error
}

// Contract for consuming match requests off the pipeline. Ack must be
// called once the request has been handled so it is not redelivered.
type MatchRequestConsumer interface {
	NextMatchRequest(ctx context.Context) (MatchRequestEvent, func(context.Context) error, error)
}

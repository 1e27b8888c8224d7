package events

import (
	"context"
	"corridor-match-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	requestStream = "corridor:match:requests"
	resultStream  = "corridor:match:results"
	// Streams are capped so a slow or absent consumer cannot grow them
	// without bound.
	maxStreamLen = 10000
)

// RedisStreamBus carries match lifecycle events over Redis Streams. Entries
// hold flat request/corridor ids for inspection plus a JSON payload field
// that round-trips the full event. The consumer side reads the request
// stream through a consumer group, so multiple workers can share it and
// unacked entries are redelivered.
type RedisStreamBus struct {
	redis    *redis.Client
	group    string
	consumer string
	block    time.Duration
}

func NewRedisStreamBus(client *redis.Client, group, consumer string) *RedisStreamBus {
	return &RedisStreamBus{
		redis:    client,
		group:    group,
		consumer: consumer,
		block:    5 * time.Second,
	}
}

type matchRequestPayload struct {
	RequestID  string    `json:"request_id"`
	CorridorID string    `json:"corridor_id"`
	DepartAt   time.Time `json:"depart_at"`
}

type matchResultPayload struct {
	RequestID   string `json:"request_id"`
	CorridorID  string `json:"corridor_id"`
	ResultID    string `json:"result_id"`
	ScoredCount int    `json:"scored_count"`
	FailedCount int    `json:"failed_count"`
	Err         string `json:"error,omitempty"`
}

func (b *RedisStreamBus) PublishMatchRequest(ctx context.Context, ev ports.MatchRequestEvent) error {
	payload, err := json.Marshal(matchRequestPayload{
		RequestID:  ev.RequestID,
		CorridorID: ev.CorridorID,
		DepartAt:   ev.DepartAt,
	})
	if err != nil {
		return fmt.Errorf("publish match request: marshal payload: %w", err)
	}

	err = b.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: requestStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"request_id":  ev.RequestID,
			"corridor_id": ev.CorridorID,
			"payload":     payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish match request: xadd %s: %w", requestStream, err)
	}
	return nil
}

func (b *RedisStreamBus) PublishMatchResult(ctx context.Context, ev ports.MatchResultEvent) error {
	payload, err := json.Marshal(matchResultPayload{
		RequestID:   ev.RequestID,
		CorridorID:  ev.CorridorID,
		ResultID:    ev.ResultID,
		ScoredCount: ev.ScoredCount,
		FailedCount: ev.FailedCount,
		Err:         ev.Err,
	})
	if err != nil {
		return fmt.Errorf("publish match result: marshal payload: %w", err)
	}

	err = b.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: resultStream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{
			"request_id":  ev.RequestID,
			"corridor_id": ev.CorridorID,
			"result_id":   ev.ResultID,
			"payload":     payload,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish match result: xadd %s: %w", resultStream, err)
	}
	return nil
}

// EnsureGroup creates the request consumer group if it does not exist yet.
// MKSTREAM also creates the stream, so a worker may start before the first
// publish. The group starts at id 0 and therefore sees requests published
// before the group existed.
func (b *RedisStreamBus) EnsureGroup(ctx context.Context) error {
	err := b.redis.XGroupCreateMkStream(ctx, requestStream, b.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("ensure consumer group %q: %w", b.group, err)
	}
	return nil
}

// NextMatchRequest blocks until a match request is available or ctx is done.
// The returned ack removes the entry from the group's pending list; an entry
// that is never acked is redelivered to the group. Malformed entries are
// acked immediately and reported as errors so they cannot wedge the stream.
func (b *RedisStreamBus) NextMatchRequest(ctx context.Context) (ports.MatchRequestEvent, func(context.Context) error, error) {
	for {
		if err := ctx.Err(); err != nil {
			return ports.MatchRequestEvent{}, nil, err
		}

		streams, err := b.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{requestStream, ">"},
			Count:    1,
			Block:    b.block,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return ports.MatchRequestEvent{}, nil, fmt.Errorf("read match requests: %w", err)
		}
		if len(streams) == 0 || len(streams[0].Messages) == 0 {
			continue
		}

		msg := streams[0].Messages[0]
		ack := func(ctx context.Context) error {
			return b.redis.XAck(ctx, requestStream, b.group, msg.ID).Err()
		}

		ev, err := decodeRequest(msg)
		if err != nil {
			_ = ack(ctx)
			return ports.MatchRequestEvent{}, nil, fmt.Errorf("read match requests: entry %s: %w", msg.ID, err)
		}
		return ev, ack, nil
	}
}

func decodeRequest(msg redis.XMessage) (ports.MatchRequestEvent, error) {
	raw, ok := msg.Values["payload"]
	if !ok {
		return ports.MatchRequestEvent{}, errors.New("missing payload field")
	}
	s, ok := raw.(string)
	if !ok {
		return ports.MatchRequestEvent{}, fmt.Errorf("payload has type %T, want string", raw)
	}

	var p matchRequestPayload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return ports.MatchRequestEvent{}, fmt.Errorf("decode payload: %w", err)
	}
	if p.CorridorID == "" {
		return ports.MatchRequestEvent{}, errors.New("payload missing corridor_id")
	}

	return ports.MatchRequestEvent{
		RequestID:  p.RequestID,
		CorridorID: p.CorridorID,
		DepartAt:   p.DepartAt,
	}, nil
}

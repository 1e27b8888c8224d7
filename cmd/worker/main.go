package main

import (
	"context"
	"corridor-match-service/internal/adapters/cache"
	"corridor-match-service/internal/adapters/events"
	"corridor-match-service/internal/adapters/planner"
	"corridor-match-service/internal/adapters/repositories"
	"corridor-match-service/internal/config"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/platform/db"
	"corridor-match-service/internal/ports"
	"corridor-match-service/internal/services"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

// Queued requests carry no itinerary cap of their own, so consumers use
// the same default the HTTP surface applies.
const defaultMaxItineraries = 5

// main runs the background match consumer: it pulls match requests off the
// Redis stream, executes the corridor match, and acks handled entries.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()

	if strings.TrimSpace(cfg.Planner.Endpoint) == "" {
		log.Fatal("OTP_ENDPOINT is required")
	}
	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		log.Fatal("REDIS_ADDR is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStorage(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer st.conn.Close()

	otp, err := planner.NewOTPPlanner(cfg.Planner.Endpoint, cfg.Planner.APIKey, st.stops)
	if err != nil {
		log.Fatal(err)
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer client.Close()

	setup := events.NewRedisStreamBus(client, cfg.Redis.Group, cfg.Redis.Consumer)
	if err := setup.EnsureGroup(ctx); err != nil {
		log.Fatal(err)
	}

	n := cfg.Worker.Concurrency
	if n < 1 {
		n = 1
	}

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		name := cfg.Redis.Consumer
		if n > 1 {
			name = fmt.Sprintf("%s-%d", name, i)
		}
		w := worker{
			bus:       events.NewRedisStreamBus(client, cfg.Redis.Group, name),
			corridors: st.corridors,
			matches:   st.matches,
			planner:   otp,
			weights:   cfg.Weights,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx)
		}()
	}

	log.Printf("Worker consuming group=%s consumers=%d backend=%s", cfg.Redis.Group, n, cfg.Storage.Backend)
	wg.Wait()
	log.Println("Worker stopped")
}

// worker bundles the collaborators one consumer loop needs.
type worker struct {
	bus       *events.RedisStreamBus
	corridors ports.CorridorRepository
	matches   ports.MatchRepository
	planner   ports.TripPlanner
	weights   domain.ScoringWeights
}

// run consumes match requests until the context is cancelled. Requests that
// cannot ever succeed are reported on the result stream and acked; transient
// failures stay unacked so the group redelivers them.
func (w worker) run(ctx context.Context) {
	for {
		ev, ack, err := w.bus.NextMatchRequest(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("op=worker msg=\"next match request failed\" err=%v", err)
			continue
		}

		err = w.handle(ctx, ev)
		switch {
		case err == nil:
		case errors.Is(err, ports.ErrNotFound):
			res := ports.MatchResultEvent{
				RequestID:  ev.RequestID,
				CorridorID: ev.CorridorID,
				Err:        err.Error(),
			}
			if pubErr := w.bus.PublishMatchResult(ctx, res); pubErr != nil {
				log.Printf("op=worker request=%s msg=\"publish failure event failed\" err=%v", ev.RequestID, pubErr)
			}
			log.Printf("op=worker request=%s corridor=%s msg=\"request dropped\" err=%v", ev.RequestID, ev.CorridorID, err)
		default:
			log.Printf("op=worker request=%s corridor=%s msg=\"match failed\" err=%v", ev.RequestID, ev.CorridorID, err)
			continue
		}

		if err := ack(ctx); err != nil {
			log.Printf("op=worker request=%s msg=\"ack failed\" err=%v", ev.RequestID, err)
		}
	}
}

func (w worker) handle(ctx context.Context, ev ports.MatchRequestEvent) error {
	corridor, err := w.corridors.GetCorridor(ctx, ev.CorridorID)
	if err != nil {
		return err
	}

	depart := ev.DepartAt
	if depart.IsZero() {
		depart = time.Now().UTC()
	}

	req := services.MatchCorridorRequest{
		RequestID:      ev.RequestID,
		Corridor:       &corridor,
		DepartAt:       depart,
		MaxItineraries: defaultMaxItineraries,
		Weights:        w.weights,
	}

	_, err = services.MatchCorridor(ctx, req, w.planner, w.matches, w.bus)
	return err
}

// storage bundles the open connection with the repositories bound to its
// SQL dialect.
type storage struct {
	conn      *sql.DB
	corridors ports.CorridorRepository
	matches   ports.MatchRepository
	stops     ports.StopCache
}

func openStorage(cfg config.Config) (storage, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.Storage.SqlitePath)
		if err != nil {
			return storage{}, err
		}
		// Schema init is idempotent, so a worker can share the server's
		// database file or run against its own.
		if err := repositories.InitSqliteSchema(conn); err != nil {
			conn.Close()
			return storage{}, fmt.Errorf("init sqlite schema: %w", err)
		}
		if cfg.Storage.SeedOnStart {
			if err := repositories.SeedCorridorsFromJSON(conn, cfg.Storage.SeedPath); err != nil {
				conn.Close()
				return storage{}, fmt.Errorf("seed corridors: %w", err)
			}
		}
		return storage{
			conn:      conn,
			corridors: repositories.NewSqliteCorridorRepository(conn),
			matches:   repositories.NewSqliteMatchRepository(conn),
			stops:     cache.NewSqliteStopCache(conn),
		}, nil

	case "postgres":
		if strings.TrimSpace(cfg.Storage.PostgresDSN) == "" {
			return storage{}, fmt.Errorf("open storage: DATABASE_URL is required for the postgres backend")
		}
		conn, err := db.Open(cfg.Storage.PostgresDSN)
		if err != nil {
			return storage{}, err
		}
		return storage{
			conn:      conn,
			corridors: repositories.NewSQLCorridorRepository(conn),
			matches:   repositories.NewSQLMatchRepository(conn),
			stops:     cache.NewSQLStopCache(conn),
		}, nil

	default:
		return storage{}, fmt.Errorf("open storage: unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
}

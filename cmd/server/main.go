package main

import (
	"corridor-match-service/internal/adapters/cache"
	"corridor-match-service/internal/adapters/events"
	"corridor-match-service/internal/adapters/planner"
	"corridor-match-service/internal/adapters/repositories"
	"corridor-match-service/internal/api"
	"corridor-match-service/internal/config"
	"corridor-match-service/internal/platform/db"
	"corridor-match-service/internal/ports"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (sqlite or postgres, OTP, Redis) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()

	if strings.TrimSpace(cfg.Planner.Endpoint) == "" {
		log.Fatal("OTP_ENDPOINT is required")
	}

	st, err := openStorage(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer st.conn.Close()

	// The OTP client keeps stop coordinates in a persistent cache to avoid
	// repeated stop lookups against the trip planner.
	otp, err := planner.NewOTPPlanner(cfg.Planner.Endpoint, cfg.Planner.APIKey, st.stops)
	if err != nil {
		log.Fatal(err)
	}

	var bus ports.EventPublisher
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer client.Close()
		bus = events.NewRedisStreamBus(client, cfg.Redis.Group, cfg.Redis.Consumer)
	}

	router := api.NewRouter(api.Deps{
		DB:        st.conn,
		Corridors: st.corridors,
		Matches:   st.matches,
		Planner:   otp,
		Bus:       bus,
		Defaults:  cfg.Weights,
	})

	// Timeouts are tuned for cold-cache trip planning (external API latency).
	log.Printf("Server listening addr=:%s backend=%s", cfg.HTTP.Port, cfg.Storage.Backend)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
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
		if err := initAndSeed(conn, cfg); err != nil {
			conn.Close()
			return storage{}, err
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

// initAndSeed keeps local sqlite runs self-contained. The postgres schema is
// managed by dbtool instead.
func initAndSeed(conn *sql.DB, cfg config.Config) error {
	if err := repositories.InitSqliteSchema(conn); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if !cfg.Storage.SeedOnStart {
		return nil
	}

	if err := repositories.SeedCorridorsFromJSON(conn, cfg.Storage.SeedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

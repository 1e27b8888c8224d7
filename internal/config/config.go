package config

import (
	"corridor-match-service/internal/domain"
	"os"
	"strconv"
)

// Config carries every tunable the binaries read from the environment.
// Absent values fall back to defaults suited to local runs; only the
// planner endpoint is checked by the callers that actually need it.
type Config struct {
	HTTP struct {
		Port string
	}
	Storage struct {
		// Backend selects "sqlite" or "postgres".
		Backend     string
		SqlitePath  string
		PostgresDSN string
		SeedPath    string
		SeedOnStart bool
	}
	Planner struct {
		Endpoint string
		APIKey   string
	}
	Redis struct {
		// Addr empty disables the event pipeline.
		Addr     string
		Group    string
		Consumer string
	}
	Worker struct {
		Concurrency int
	}
	Weights domain.ScoringWeights
}

func Load() Config {
	var cfg Config

	cfg.HTTP.Port = Get("PORT", "8080")

	cfg.Storage.Backend = Get("STORAGE_BACKEND", "sqlite")
	cfg.Storage.SqlitePath = Get("DB_PATH", "data/app.db")
	cfg.Storage.PostgresDSN = Get("DATABASE_URL", "")
	cfg.Storage.SeedPath = Get("SEED_PATH", "data/seeds/corridors.json")
	cfg.Storage.SeedOnStart = GetBool("SEED_ON_START", true)

	cfg.Planner.Endpoint = Get("OTP_ENDPOINT", "")
	cfg.Planner.APIKey = Get("OTP_API_KEY", "")

	cfg.Redis.Addr = Get("REDIS_ADDR", "")
	cfg.Redis.Group = Get("REDIS_GROUP", "corridor-workers")
	cfg.Redis.Consumer = Get("REDIS_CONSUMER", defaultConsumer())

	cfg.Worker.Concurrency = GetInt("WORKER_CONCURRENCY", 1)

	cfg.Weights = domain.ScoringWeights{
		DetourWeight:           GetFloat("DETOUR_WEIGHT", domain.DefaultDetourWeight),
		TransferPenaltyMinutes: GetFloat("TRANSFER_PENALTY_MINUTES", domain.DefaultTransferPenaltyMinutes),
	}

	return cfg
}

func defaultConsumer() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "worker-1"
	}
	return "worker-" + host
}

func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func GetFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}

func GetBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

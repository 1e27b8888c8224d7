package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the SQLite database schema. Timestamps are stored as Unix
// milliseconds so result ordering stays a plain integer comparison.
func InitSqliteSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createCorridorsQuery := `
	CREATE TABLE IF NOT EXISTS corridors (
		corridor_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		origin_stop_id TEXT NOT NULL,
		destination_stop_id TEXT NOT NULL,
		origin_lat REAL NOT NULL,
		origin_lon REAL NOT NULL,
		destination_lat REAL NOT NULL,
		destination_lon REAL NOT NULL,
		detour_weight REAL,
		transfer_penalty_minutes REAL
	);
	`

	createMatchResultsQuery := `
	CREATE TABLE IF NOT EXISTS match_results (
		result_id TEXT PRIMARY KEY,
		corridor_id TEXT NOT NULL,
		requested_at INTEGER NOT NULL,
		depart_at INTEGER NOT NULL,
		planned_count INTEGER NOT NULL,
		scored_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL
	);
	`

	createMatchRoutesQuery := `
	CREATE TABLE IF NOT EXISTS match_result_routes (
		result_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		score REAL NOT NULL,
		duration_minutes REAL NOT NULL,
		detour_penalty_minutes REAL NOT NULL,
		transfer_penalty_minutes REAL NOT NULL,
		detour_ratio REAL NOT NULL,
		route_distance_km REAL NOT NULL,
		straight_line_km REAL NOT NULL,
		transfer_count INTEGER NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		PRIMARY KEY (result_id, rank)
	);
	`

	createMatchLegsQuery := `
	CREATE TABLE IF NOT EXISTS match_result_legs (
		result_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		leg_index INTEGER NOT NULL,
		mode TEXT NOT NULL,
		from_name TEXT NOT NULL,
		from_stop_id TEXT NOT NULL DEFAULT '',
		to_name TEXT NOT NULL,
		to_stop_id TEXT NOT NULL DEFAULT '',
		start_time INTEGER NOT NULL,
		end_time INTEGER NOT NULL,
		distance_meters REAL NOT NULL,
		trip_id TEXT NOT NULL DEFAULT '',
		route_id TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (result_id, rank, leg_index)
	);
	`

	createMatchFailuresQuery := `
	CREATE TABLE IF NOT EXISTS match_failures (
		result_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (result_id, position)
	);
	`

	createStopCacheQuery := `
	CREATE TABLE IF NOT EXISTS stop_cache (
		stop_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_match_results_corridor_requested
	ON match_results(corridor_id, requested_at);
	`

	statements := []string{
		createCorridorsQuery,
		createMatchResultsQuery,
		createMatchRoutesQuery,
		createMatchLegsQuery,
		createMatchFailuresQuery,
		createStopCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type CorridorSeed struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	OriginStopID           string   `json:"origin_stop_id"`
	DestinationStopID      string   `json:"destination_stop_id"`
	OriginLat              float64  `json:"origin_lat"`
	OriginLon              float64  `json:"origin_lon"`
	DestinationLat         float64  `json:"destination_lat"`
	DestinationLon         float64  `json:"destination_lon"`
	DetourWeight           *float64 `json:"detour_weight"`
	TransferPenaltyMinutes *float64 `json:"transfer_penalty_minutes"`
}

func loadCorridorSeeds(jsonPath string) ([]CorridorSeed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed corridors: read %q: %w", jsonPath, err)
	}

	var data []CorridorSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed corridors: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.ID) == "" {
			return nil, fmt.Errorf("seed corridors: empty id at index %d", i)
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("seed corridors: corridor %q: empty name", item.ID)
		}
		if item.OriginLat < -90 || item.OriginLat > 90 || item.DestinationLat < -90 || item.DestinationLat > 90 {
			return nil, fmt.Errorf("seed corridors: corridor %q: latitude out of range", item.ID)
		}
		if item.OriginLon < -180 || item.OriginLon > 180 || item.DestinationLon < -180 || item.DestinationLon > 180 {
			return nil, fmt.Errorf("seed corridors: corridor %q: longitude out of range", item.ID)
		}
	}

	return data, nil
}

// Populate the corridors table from a JSON file.
func SeedCorridorsFromJSON(db *sql.DB, jsonPath string) error {
	seeds, err := loadCorridorSeeds(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed corridors: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT OR REPLACE INTO corridors (
		corridor_id,
		name,
		origin_stop_id,
		destination_stop_id,
		origin_lat,
		origin_lon,
		destination_lat,
		destination_lon,
		detour_weight,
		transfer_penalty_minutes
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed corridors: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range seeds {
		_, err := stmt.Exec(
			c.ID, c.Name,
			c.OriginStopID, c.DestinationStopID,
			c.OriginLat, c.OriginLon,
			c.DestinationLat, c.DestinationLon,
			c.DetourWeight, c.TransferPenaltyMinutes,
		)
		if err != nil {
			return fmt.Errorf("seed corridors: insert corridor_id=%q: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed corridors: commit tx: %w", err)
	}

	return nil
}

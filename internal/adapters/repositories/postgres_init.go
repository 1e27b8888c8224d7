package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres database schema. Mirrors the SQLite schema with
// native timestamp columns.
func InitPostgresSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS corridors (
			corridor_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			origin_stop_id TEXT NOT NULL,
			destination_stop_id TEXT NOT NULL,
			origin_lat DOUBLE PRECISION NOT NULL,
			origin_lon DOUBLE PRECISION NOT NULL,
			destination_lat DOUBLE PRECISION NOT NULL,
			destination_lon DOUBLE PRECISION NOT NULL,
			detour_weight DOUBLE PRECISION,
			transfer_penalty_minutes DOUBLE PRECISION
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS match_results (
			result_id TEXT PRIMARY KEY,
			corridor_id TEXT NOT NULL,
			requested_at TIMESTAMPTZ NOT NULL,
			depart_at TIMESTAMPTZ NOT NULL,
			planned_count INTEGER NOT NULL,
			scored_count INTEGER NOT NULL,
			failed_count INTEGER NOT NULL
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS match_result_routes (
			result_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			duration_minutes DOUBLE PRECISION NOT NULL,
			detour_penalty_minutes DOUBLE PRECISION NOT NULL,
			transfer_penalty_minutes DOUBLE PRECISION NOT NULL,
			detour_ratio DOUBLE PRECISION NOT NULL,
			route_distance_km DOUBLE PRECISION NOT NULL,
			straight_line_km DOUBLE PRECISION NOT NULL,
			transfer_count INTEGER NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (result_id, rank)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS match_result_legs (
			result_id TEXT NOT NULL,
			rank INTEGER NOT NULL,
			leg_index INTEGER NOT NULL,
			mode TEXT NOT NULL,
			from_name TEXT NOT NULL,
			from_stop_id TEXT NOT NULL DEFAULT '',
			to_name TEXT NOT NULL,
			to_stop_id TEXT NOT NULL DEFAULT '',
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			distance_meters DOUBLE PRECISION NOT NULL,
			trip_id TEXT NOT NULL DEFAULT '',
			route_id TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (result_id, rank, leg_index)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS match_failures (
			result_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (result_id, position)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS stop_cache (
			stop_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_match_results_corridor_requested
		ON match_results(corridor_id, requested_at DESC);
		`,
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

// Populate the corridors table from a JSON file, Postgres flavour.
func SeedCorridorsFromJSONPostgres(db *sql.DB, jsonPath string) error {
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
	INSERT INTO corridors (
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
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (corridor_id) DO UPDATE
	SET name = EXCLUDED.name,
		origin_stop_id = EXCLUDED.origin_stop_id,
		destination_stop_id = EXCLUDED.destination_stop_id,
		origin_lat = EXCLUDED.origin_lat,
		origin_lon = EXCLUDED.origin_lon,
		destination_lat = EXCLUDED.destination_lat,
		destination_lon = EXCLUDED.destination_lon,
		detour_weight = EXCLUDED.detour_weight,
		transfer_penalty_minutes = EXCLUDED.transfer_penalty_minutes;
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

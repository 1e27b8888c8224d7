package repositories

import (
	"context"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLite-backed implementation of the MatchRepository port.
//
// A result is stored across four tables: the header row, one row per ranked
// route, one row per leg of each route, and one row per recorded failure.
// SaveResult replaces any previous rows for the same id, so a redelivered
// match request stays idempotent.
type SqliteMatchRepository struct{ DB *sql.DB }

func NewSqliteMatchRepository(db *sql.DB) *SqliteMatchRepository {
	return &SqliteMatchRepository{DB: db}
}

func (s *SqliteMatchRepository) SaveResult(ctx context.Context, res domain.MatchResult) error {
	if s.DB == nil {
		return errors.New("sqlite match repository: DB is nil")
	}
	if strings.TrimSpace(res.ID) == "" {
		return errors.New("save result: empty result id")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save result: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	headerQuery := `
	INSERT OR REPLACE INTO match_results (
		result_id,
		corridor_id,
		requested_at,
		depart_at,
		planned_count,
		scored_count,
		failed_count
	)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`
	_, err = tx.ExecContext(ctx, headerQuery,
		res.ID, res.CorridorID,
		res.RequestedAt.UnixMilli(), res.DepartAt.UnixMilli(),
		res.PlannedCount, res.ScoredCount, res.FailedCount,
	)
	if err != nil {
		return fmt.Errorf("save result: insert match_results: %w", err)
	}

	for _, table := range []string{"match_result_routes", "match_result_legs", "match_failures"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE result_id = ?;`, res.ID); err != nil {
			return fmt.Errorf("save result: clear %s: %w", table, err)
		}
	}

	routeStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO match_result_routes (
		result_id, rank, score,
		duration_minutes, detour_penalty_minutes, transfer_penalty_minutes,
		detour_ratio, route_distance_km, straight_line_km,
		transfer_count, start_time, end_time
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("save result: prepare route insert: %w", err)
	}
	defer routeStmt.Close()

	legStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO match_result_legs (
		result_id, rank, leg_index, mode,
		from_name, from_stop_id, to_name, to_stop_id,
		start_time, end_time, distance_meters, trip_id, route_id
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("save result: prepare leg insert: %w", err)
	}
	defer legStmt.Close()

	for rank, route := range res.Routes {
		sc := route.Score
		_, err := routeStmt.ExecContext(ctx,
			res.ID, rank, sc.Score,
			sc.DurationMinutes, sc.DetourPenaltyMinutes, sc.TransferPenaltyMinutes,
			sc.DetourRatio, sc.RouteDistanceKm, sc.StraightLineKm,
			sc.TransferCount,
			route.Itinerary.StartTime.UnixMilli(), route.Itinerary.EndTime.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("save result: insert route rank=%d: %w", rank, err)
		}

		for i, leg := range route.Itinerary.Legs {
			_, err := legStmt.ExecContext(ctx,
				res.ID, rank, i, string(leg.Mode),
				leg.From.Name, leg.From.StopID, leg.To.Name, leg.To.StopID,
				leg.StartTime.UnixMilli(), leg.EndTime.UnixMilli(),
				leg.DistanceMeters, leg.TripID, leg.RouteID,
			)
			if err != nil {
				return fmt.Errorf("save result: insert leg rank=%d index=%d: %w", rank, i, err)
			}
		}
	}

	failureQuery := `
	INSERT INTO match_failures (result_id, position, message)
	VALUES (?, ?, ?);
	`
	for i, msg := range res.Failures {
		if _, err := tx.ExecContext(ctx, failureQuery, res.ID, i, msg); err != nil {
			return fmt.Errorf("save result: insert failure position=%d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save result: commit tx: %w", err)
	}

	return nil
}

// Load one complete stored result, routes and legs included.
func (s *SqliteMatchRepository) GetResult(ctx context.Context, id string) (domain.MatchResult, error) {
	if s.DB == nil {
		return domain.MatchResult{}, errors.New("sqlite match repository: DB is nil")
	}

	headerQuery := `
	SELECT result_id, corridor_id, requested_at, depart_at, planned_count, scored_count, failed_count
	FROM match_results
	WHERE result_id = ?;
	`
	var res domain.MatchResult
	var requestedMs, departMs int64
	err := s.DB.QueryRowContext(ctx, headerQuery, id).Scan(
		&res.ID, &res.CorridorID, &requestedMs, &departMs,
		&res.PlannedCount, &res.ScoredCount, &res.FailedCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MatchResult{}, fmt.Errorf("get result %q: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return domain.MatchResult{}, fmt.Errorf("get result %q: %w", id, err)
	}
	res.RequestedAt = time.UnixMilli(requestedMs).UTC()
	res.DepartAt = time.UnixMilli(departMs).UTC()

	routes, err := s.loadRoutes(ctx, id, res.CorridorID)
	if err != nil {
		return domain.MatchResult{}, fmt.Errorf("get result %q: %w", id, err)
	}
	res.Routes = routes

	failures, err := s.loadFailures(ctx, id)
	if err != nil {
		return domain.MatchResult{}, fmt.Errorf("get result %q: %w", id, err)
	}
	res.Failures = failures

	return res, nil
}

func (s *SqliteMatchRepository) loadRoutes(ctx context.Context, id, corridorID string) ([]domain.ScoredRoute, error) {
	routeQuery := `
	SELECT rank, score,
		duration_minutes, detour_penalty_minutes, transfer_penalty_minutes,
		detour_ratio, route_distance_km, straight_line_km,
		transfer_count, start_time, end_time
	FROM match_result_routes
	WHERE result_id = ?
	ORDER BY rank;
	`
	rows, err := s.DB.QueryContext(ctx, routeQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query match_result_routes: %w", err)
	}
	defer rows.Close()

	routes := make([]domain.ScoredRoute, 0, 8)
	for rows.Next() {
		var rank int
		var sc domain.CorridorScore
		var startMs, endMs int64
		err := rows.Scan(
			&rank, &sc.Score,
			&sc.DurationMinutes, &sc.DetourPenaltyMinutes, &sc.TransferPenaltyMinutes,
			&sc.DetourRatio, &sc.RouteDistanceKm, &sc.StraightLineKm,
			&sc.TransferCount, &startMs, &endMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan route row: %w", err)
		}
		sc.CorridorID = corridorID
		routes = append(routes, domain.ScoredRoute{
			Itinerary: domain.Itinerary{
				StartTime: time.UnixMilli(startMs).UTC(),
				EndTime:   time.UnixMilli(endMs).UTC(),
			},
			Score: sc,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("route row iteration: %w", err)
	}

	legQuery := `
	SELECT rank, mode,
		from_name, from_stop_id, to_name, to_stop_id,
		start_time, end_time, distance_meters, trip_id, route_id
	FROM match_result_legs
	WHERE result_id = ?
	ORDER BY rank, leg_index;
	`
	legRows, err := s.DB.QueryContext(ctx, legQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query match_result_legs: %w", err)
	}
	defer legRows.Close()

	for legRows.Next() {
		var rank int
		var mode string
		var leg domain.Leg
		var startMs, endMs int64
		err := legRows.Scan(
			&rank, &mode,
			&leg.From.Name, &leg.From.StopID, &leg.To.Name, &leg.To.StopID,
			&startMs, &endMs, &leg.DistanceMeters, &leg.TripID, &leg.RouteID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan leg row: %w", err)
		}
		if rank < 0 || rank >= len(routes) {
			return nil, fmt.Errorf("leg row references unknown route rank %d", rank)
		}
		leg.Mode = domain.TransportMode(mode)
		leg.StartTime = time.UnixMilli(startMs).UTC()
		leg.EndTime = time.UnixMilli(endMs).UTC()
		routes[rank].Itinerary.Legs = append(routes[rank].Itinerary.Legs, leg)
	}
	if err := legRows.Err(); err != nil {
		return nil, fmt.Errorf("leg row iteration: %w", err)
	}

	return routes, nil
}

func (s *SqliteMatchRepository) loadFailures(ctx context.Context, id string) ([]string, error) {
	query := `
	SELECT message
	FROM match_failures
	WHERE result_id = ?
	ORDER BY position;
	`
	rows, err := s.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query match_failures: %w", err)
	}
	defer rows.Close()

	failures := make([]string, 0, 4)
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("scan failure row: %w", err)
		}
		failures = append(failures, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failure row iteration: %w", err)
	}

	return failures, nil
}

// List recent result headers for a corridor, newest first. The entries carry
// counts only; GetResult loads the full routes.
func (s *SqliteMatchRepository) ListResults(ctx context.Context, corridorID string, limit int) ([]domain.MatchResult, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite match repository: DB is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT result_id, corridor_id, requested_at, depart_at, planned_count, scored_count, failed_count
	FROM match_results
	WHERE corridor_id = ?
	ORDER BY requested_at DESC
	LIMIT ?;
	`
	rows, err := s.DB.QueryContext(ctx, query, corridorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: query match_results table: %w", err)
	}
	defer rows.Close()

	results := make([]domain.MatchResult, 0, limit)
	for rows.Next() {
		var res domain.MatchResult
		var requestedMs, departMs int64
		err := rows.Scan(
			&res.ID, &res.CorridorID, &requestedMs, &departMs,
			&res.PlannedCount, &res.ScoredCount, &res.FailedCount,
		)
		if err != nil {
			return nil, fmt.Errorf("list results: scan row: %w", err)
		}
		res.RequestedAt = time.UnixMilli(requestedMs).UTC()
		res.DepartAt = time.UnixMilli(departMs).UTC()
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results: row iteration: %w", err)
	}

	return results, nil
}

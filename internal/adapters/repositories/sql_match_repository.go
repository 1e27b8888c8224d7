package repositories

import (
	"context"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/platform/obs"
	"corridor-match-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Postgres-backed implementation of the MatchRepository port. Mirrors the
// sqlite layout but stores timestamps as TIMESTAMPTZ and upserts the header
// row with ON CONFLICT so redelivered requests overwrite cleanly.
type SQLMatchRepository struct{ DB *sql.DB }

func NewSQLMatchRepository(db *sql.DB) *SQLMatchRepository {
	return &SQLMatchRepository{DB: db}
}

func (s *SQLMatchRepository) SaveResult(ctx context.Context, res domain.MatchResult) (err error) {
	defer obs.Time(ctx, "matches.SaveResult")(&err)

	if s.DB == nil {
		return errors.New("sql match repository: DB is nil")
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
	INSERT INTO match_results (
		result_id,
		corridor_id,
		requested_at,
		depart_at,
		planned_count,
		scored_count,
		failed_count
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (result_id) DO UPDATE SET
		corridor_id = EXCLUDED.corridor_id,
		requested_at = EXCLUDED.requested_at,
		depart_at = EXCLUDED.depart_at,
		planned_count = EXCLUDED.planned_count,
		scored_count = EXCLUDED.scored_count,
		failed_count = EXCLUDED.failed_count;
	`
	_, err = tx.ExecContext(ctx, headerQuery,
		res.ID, res.CorridorID,
		res.RequestedAt, res.DepartAt,
		res.PlannedCount, res.ScoredCount, res.FailedCount,
	)
	if err != nil {
		return fmt.Errorf("save result: insert match_results: %w", err)
	}

	for _, table := range []string{"match_result_routes", "match_result_legs", "match_failures"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE result_id = $1;`, res.ID); err != nil {
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
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
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
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
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
			route.Itinerary.StartTime, route.Itinerary.EndTime,
		)
		if err != nil {
			return fmt.Errorf("save result: insert route rank=%d: %w", rank, err)
		}

		for i, leg := range route.Itinerary.Legs {
			_, err := legStmt.ExecContext(ctx,
				res.ID, rank, i, string(leg.Mode),
				leg.From.Name, leg.From.StopID, leg.To.Name, leg.To.StopID,
				leg.StartTime, leg.EndTime,
				leg.DistanceMeters, leg.TripID, leg.RouteID,
			)
			if err != nil {
				return fmt.Errorf("save result: insert leg rank=%d index=%d: %w", rank, i, err)
			}
		}
	}

	failureQuery := `
	INSERT INTO match_failures (result_id, position, message)
	VALUES ($1, $2, $3);
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

func (s *SQLMatchRepository) GetResult(ctx context.Context, id string) (_ domain.MatchResult, err error) {
	defer obs.Time(ctx, "matches.GetResult")(&err)

	if s.DB == nil {
		return domain.MatchResult{}, errors.New("sql match repository: DB is nil")
	}

	headerQuery := `
	SELECT result_id, corridor_id, requested_at, depart_at, planned_count, scored_count, failed_count
	FROM match_results
	WHERE result_id = $1;
	`
	var res domain.MatchResult
	err = s.DB.QueryRowContext(ctx, headerQuery, id).Scan(
		&res.ID, &res.CorridorID, &res.RequestedAt, &res.DepartAt,
		&res.PlannedCount, &res.ScoredCount, &res.FailedCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MatchResult{}, fmt.Errorf("get result %q: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return domain.MatchResult{}, fmt.Errorf("get result %q: %w", id, err)
	}

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

func (s *SQLMatchRepository) loadRoutes(ctx context.Context, id, corridorID string) ([]domain.ScoredRoute, error) {
	routeQuery := `
	SELECT rank, score,
		duration_minutes, detour_penalty_minutes, transfer_penalty_minutes,
		detour_ratio, route_distance_km, straight_line_km,
		transfer_count, start_time, end_time
	FROM match_result_routes
	WHERE result_id = $1
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
		var route domain.ScoredRoute
		err := rows.Scan(
			&rank, &sc.Score,
			&sc.DurationMinutes, &sc.DetourPenaltyMinutes, &sc.TransferPenaltyMinutes,
			&sc.DetourRatio, &sc.RouteDistanceKm, &sc.StraightLineKm,
			&sc.TransferCount,
			&route.Itinerary.StartTime, &route.Itinerary.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan route row: %w", err)
		}
		sc.CorridorID = corridorID
		route.Score = sc
		route.Itinerary.StartTime = route.Itinerary.StartTime.UTC()
		route.Itinerary.EndTime = route.Itinerary.EndTime.UTC()
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("route row iteration: %w", err)
	}

	legQuery := `
	SELECT rank, mode,
		from_name, from_stop_id, to_name, to_stop_id,
		start_time, end_time, distance_meters, trip_id, route_id
	FROM match_result_legs
	WHERE result_id = $1
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
		err := legRows.Scan(
			&rank, &mode,
			&leg.From.Name, &leg.From.StopID, &leg.To.Name, &leg.To.StopID,
			&leg.StartTime, &leg.EndTime, &leg.DistanceMeters, &leg.TripID, &leg.RouteID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan leg row: %w", err)
		}
		if rank < 0 || rank >= len(routes) {
			return nil, fmt.Errorf("leg row references unknown route rank %d", rank)
		}
		leg.Mode = domain.TransportMode(mode)
		leg.StartTime = leg.StartTime.UTC()
		leg.EndTime = leg.EndTime.UTC()
		routes[rank].Itinerary.Legs = append(routes[rank].Itinerary.Legs, leg)
	}
	if err := legRows.Err(); err != nil {
		return nil, fmt.Errorf("leg row iteration: %w", err)
	}

	return routes, nil
}

func (s *SQLMatchRepository) loadFailures(ctx context.Context, id string) ([]string, error) {
	query := `
	SELECT message
	FROM match_failures
	WHERE result_id = $1
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

func (s *SQLMatchRepository) ListResults(ctx context.Context, corridorID string, limit int) (_ []domain.MatchResult, err error) {
	defer obs.Time(ctx, "matches.ListResults")(&err)

	if s.DB == nil {
		return nil, errors.New("sql match repository: DB is nil")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT result_id, corridor_id, requested_at, depart_at, planned_count, scored_count, failed_count
	FROM match_results
	WHERE corridor_id = $1
	ORDER BY requested_at DESC
	LIMIT $2;
	`
	rows, err := s.DB.QueryContext(ctx, query, corridorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: query match_results table: %w", err)
	}
	defer rows.Close()

	results := make([]domain.MatchResult, 0, limit)
	for rows.Next() {
		var res domain.MatchResult
		err := rows.Scan(
			&res.ID, &res.CorridorID, &res.RequestedAt, &res.DepartAt,
			&res.PlannedCount, &res.ScoredCount, &res.FailedCount,
		)
		if err != nil {
			return nil, fmt.Errorf("list results: scan row: %w", err)
		}
		res.RequestedAt = res.RequestedAt.UTC()
		res.DepartAt = res.DepartAt.UTC()
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results: row iteration: %w", err)
	}

	return results, nil
}

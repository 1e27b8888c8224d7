package cache

import (
	"context"
	"corridor-match-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLite backed cache mapping stop identifiers to resolved locations, so
// repeated corridor runs do not re-query the planner for the same stops.
type SqliteStopCache struct {
	DB *sql.DB
}

func NewSqliteStopCache(db *sql.DB) *SqliteStopCache {
	return &SqliteStopCache{DB: db}
}

// Fetch the cached location for one stop identifier.
func (s *SqliteStopCache) GetStop(ctx context.Context, stopID string) (ports.StopLocation, bool, error) {
	if s.DB == nil {
		return ports.StopLocation{}, false, errors.New("stop cache: db is nil")
	}

	id := strings.TrimSpace(stopID)
	if id == "" {
		return ports.StopLocation{}, false, errors.New("stop cache: empty stop id")
	}

	q := `
	SELECT
		stop_id,
		name,
		lat,
		lon
	FROM stop_cache
	WHERE stop_id = ?;
	`

	var loc ports.StopLocation
	err := s.DB.QueryRowContext(ctx, q, id).Scan(&loc.StopID, &loc.Name, &loc.Position.Lat, &loc.Position.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.StopLocation{}, false, nil
	}
	if err != nil {
		return ports.StopLocation{}, false, fmt.Errorf("get stop cache: query stop_cache table: %w", err)
	}

	return loc, true, nil
}

// Store one resolved stop location in the cache.
func (s *SqliteStopCache) PutStop(ctx context.Context, loc ports.StopLocation) error {
	if s.DB == nil {
		return errors.New("stop cache: db is nil")
	}

	if strings.TrimSpace(loc.StopID) == "" {
		return errors.New("insert stop cache: empty stop id")
	}
	if err := loc.Position.Validate(); err != nil {
		return fmt.Errorf("insert stop cache: stop %q: %w", loc.StopID, err)
	}

	q := `
	INSERT OR REPLACE INTO stop_cache (
		stop_id,
		name,
		lat,
		lon
	)
	VALUES (?, ?, ?, ?);
	`

	if _, err := s.DB.ExecContext(ctx, q, loc.StopID, loc.Name, loc.Position.Lat, loc.Position.Lon); err != nil {
		return fmt.Errorf("insert stop cache stop=%q: %w", loc.StopID, err)
	}

	return nil
}

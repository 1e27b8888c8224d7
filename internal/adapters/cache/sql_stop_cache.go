package cache

import (
	"context"
	"corridor-match-service/internal/platform/obs"
	"corridor-match-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SQLStopCache is the Postgres flavour of the stop location cache.
type SQLStopCache struct {
	DB *sql.DB
}

func NewSQLStopCache(db *sql.DB) *SQLStopCache {
	return &SQLStopCache{DB: db}
}

// Fetch the cached location for one stop identifier.
func (s *SQLStopCache) GetStop(ctx context.Context, stopID string) (_ ports.StopLocation, _ bool, err error) {
	defer obs.Time(ctx, "stop.cache.GetStop")(&err)

	if s.DB == nil {
		return ports.StopLocation{}, false, errors.New("stop cache: db is nil")
	}

	id := strings.TrimSpace(stopID)
	if id == "" {
		return ports.StopLocation{}, false, errors.New("stop cache: empty stop id")
	}

	q := `
	SELECT stop_id, name, lat, lon
	FROM stop_cache
	WHERE stop_id = $1;
	`

	var loc ports.StopLocation
	err = s.DB.QueryRowContext(ctx, q, id).Scan(&loc.StopID, &loc.Name, &loc.Position.Lat, &loc.Position.Lon)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return ports.StopLocation{}, false, nil
	}
	if err != nil {
		return ports.StopLocation{}, false, fmt.Errorf("get stop cache: query stop_cache table: %w", err)
	}

	return loc, true, nil
}

// Store one resolved stop location in the cache.
func (s *SQLStopCache) PutStop(ctx context.Context, loc ports.StopLocation) error {
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
	INSERT INTO stop_cache (stop_id, name, lat, lon)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (stop_id) DO UPDATE
	SET name = EXCLUDED.name,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`

	if _, err := s.DB.ExecContext(ctx, q, loc.StopID, loc.Name, loc.Position.Lat, loc.Position.Lon); err != nil {
		return fmt.Errorf("insert stop cache stop=%q: %w", loc.StopID, err)
	}

	return nil
}

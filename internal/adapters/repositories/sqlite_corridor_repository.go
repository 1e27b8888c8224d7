package repositories

import (
	"context"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
)

// SQLite-backed implementation of the CorridorRepository port.
type SqliteCorridorRepository struct{ DB *sql.DB }

func NewSqliteCorridorRepository(db *sql.DB) *SqliteCorridorRepository {
	return &SqliteCorridorRepository{DB: db}
}

const corridorColumns = `
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
`

// scanCorridor reads one corridors row in corridorColumns order. Shared by
// both SQL dialects; the schemas agree on columns.
func scanCorridor(scan func(dest ...any) error) (domain.Corridor, error) {
	var c domain.Corridor
	var detourWeight, transferPenalty sql.NullFloat64

	err := scan(
		&c.ID, &c.Name,
		&c.OriginStopID, &c.DestinationStopID,
		&c.Origin.Lat, &c.Origin.Lon,
		&c.Destination.Lat, &c.Destination.Lon,
		&detourWeight, &transferPenalty,
	)
	if err != nil {
		return domain.Corridor{}, err
	}

	if detourWeight.Valid {
		v := detourWeight.Float64
		c.DetourWeight = &v
	}
	if transferPenalty.Valid {
		v := transferPenalty.Float64
		c.TransferPenaltyMinutes = &v
	}

	return c, nil
}

// Return all corridors, stable by identifier.
func (s *SqliteCorridorRepository) ListCorridors(ctx context.Context) ([]domain.Corridor, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite corridor repository: DB is nil")
	}

	query := `
	SELECT ` + corridorColumns + `
	FROM corridors
	ORDER BY corridor_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list corridors: query corridors table: %w", err)
	}
	defer rows.Close()

	corridors := make([]domain.Corridor, 0, 16)
	for rows.Next() {
		c, err := scanCorridor(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list corridors: scan row: %w", err)
		}
		corridors = append(corridors, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list corridors: row iteration: %w", err)
	}

	return corridors, nil
}

// Fetch a single corridor by identifier.
func (s *SqliteCorridorRepository) GetCorridor(ctx context.Context, id string) (domain.Corridor, error) {
	if s.DB == nil {
		return domain.Corridor{}, errors.New("sqlite corridor repository: DB is nil")
	}

	query := `
	SELECT ` + corridorColumns + `
	FROM corridors
	WHERE corridor_id = ?;
	`
	c, err := scanCorridor(s.DB.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Corridor{}, fmt.Errorf("get corridor %q: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return domain.Corridor{}, fmt.Errorf("get corridor %q: %w", id, err)
	}

	return c, nil
}

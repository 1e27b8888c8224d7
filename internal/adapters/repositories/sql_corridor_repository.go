package repositories

import (
	"context"
	"corridor-match-service/internal/domain"
	"corridor-match-service/internal/platform/obs"
	"corridor-match-service/internal/ports"
	"database/sql"
	"errors"
	"fmt"
)

// Postgres-backed implementation of the CorridorRepository port.
type SQLCorridorRepository struct{ DB *sql.DB }

func NewSQLCorridorRepository(db *sql.DB) *SQLCorridorRepository {
	return &SQLCorridorRepository{DB: db}
}

// Return all corridors, stable by identifier.
func (s *SQLCorridorRepository) ListCorridors(ctx context.Context) (_ []domain.Corridor, err error) {
	defer obs.Time(ctx, "corridors.ListCorridors")(&err)

	if s.DB == nil {
		return nil, errors.New("corridor repository: DB is nil")
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
func (s *SQLCorridorRepository) GetCorridor(ctx context.Context, id string) (_ domain.Corridor, err error) {
	defer obs.Time(ctx, "corridors.GetCorridor")(&err)

	if s.DB == nil {
		return domain.Corridor{}, errors.New("corridor repository: DB is nil")
	}

	query := `
	SELECT ` + corridorColumns + `
	FROM corridors
	WHERE corridor_id = $1;
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

package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"diversityorgs/internal/models"
)

const locationColumns = `l.id, l.name, l.region, l.country, ST_Y(l.point::geometry), ST_X(l.point::geometry), l.created_at`

func scanLocation(row pgx.Row) (*models.Location, error) {
	var l models.Location
	if err := row.Scan(&l.ID, &l.Name, &l.Region, &l.Country, &l.Latitude, &l.Longitude, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLocationByID retrieves a location by ID.
func (d *DB) GetLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	row := d.Pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations l WHERE l.id = $1`, id)
	l, err := scanLocation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLocationNotFound
	}
	return l, err
}

// GetOrCreateLocation returns the location with exactly this name, region and
// country, creating it if needed. Coordinates, when given, are only set on
// a location that has none.
func (d *DB) GetOrCreateLocation(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO locations (name, region, country, point)
		VALUES ($1, $2, $3, CASE WHEN $4::float8 IS NULL OR $5::float8 IS NULL THEN NULL
			ELSE ST_SetSRID(ST_MakePoint($5, $4), 4326)::geography END)
		ON CONFLICT (name, region, country) DO UPDATE SET
			point = COALESCE(locations.point, EXCLUDED.point)
		RETURNING id, ST_Y(point::geometry), ST_X(point::geometry), created_at
	`
	return d.Pool.QueryRow(ctx, query, loc.Name, loc.Region, loc.Country, loc.Latitude, loc.Longitude).
		Scan(&loc.ID, &loc.Latitude, &loc.Longitude, &loc.CreatedAt)
}

// SetLocationPoint stores coordinates for a location.
func (d *DB) SetLocationPoint(ctx context.Context, id uuid.UUID, lat, lon float64) error {
	tag, err := d.Pool.Exec(ctx, `
		UPDATE locations SET point = ST_SetSRID(ST_MakePoint($3, $2), 4326)::geography
		WHERE id = $1
	`, id, lat, lon)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLocationNotFound
	}
	return nil
}

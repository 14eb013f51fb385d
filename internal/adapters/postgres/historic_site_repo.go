package postgres

import (
	"context"
	"fmt"

	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/pkg/geospatial"
)

// HistoricSiteRepo implements ports.HistoricSiteRepository with pgx. The
// register is imported out of band; this repo only reads it.
type HistoricSiteRepo struct {
	db *DB
}

// NewHistoricSiteRepo creates a new HistoricSiteRepo.
func NewHistoricSiteRepo(db *DB) *HistoricSiteRepo {
	return &HistoricSiteRepo{db: db}
}

const historicSiteColumns = `
	id, ref_num, name, COALESCE(category, ''),
	ST_Y(location::geometry) AS lat,
	ST_X(location::geometry) AS lng,
	COALESCE(county, ''), COALESCE(state, ''), listed_at, created_at
`

// FindInBounds returns sites inside a map viewport.
func (r *HistoricSiteRepo) FindInBounds(ctx context.Context, b domain.BoundingBox, limit int) ([]domain.HistoricSite, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+historicSiteColumns+`
		FROM historic_sites
		WHERE location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		ORDER BY name
		LIMIT $5
	`, b.West, b.South, b.East, b.North, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectHistoricSites(rows)
}

// FindNearby returns sites within radiusMeters of a point, nearest first.
func (r *HistoricSiteRepo) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HistoricSite, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+historicSiteColumns+`
		FROM historic_sites
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY location <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography
		LIMIT $4
	`, lng, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectHistoricSites(rows)
}

// ExistsNear reports whether any registered site lies within radiusMeters.
// Same planar box-then-distance approach as the potential-site dedup query.
func (r *HistoricSiteRepo) ExistsNear(ctx context.Context, lat, lng, radiusMeters float64) (bool, error) {
	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(lat, lng, radiusMeters)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry)
		FROM historic_sites
		WHERE ST_Y(location::geometry) BETWEEN $1 AND $2
		  AND ST_X(location::geometry) BETWEEN $3 AND $4
	`, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	return anyWithinPlanarRadius(rows, lat, lng, radiusMeters)
}

func collectHistoricSites(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.HistoricSite, error) {
	var sites []domain.HistoricSite
	for rows.Next() {
		var s domain.HistoricSite
		if err := rows.Scan(
			&s.ID, &s.RefNum, &s.Name, &s.Category,
			&s.Location.Lat, &s.Location.Lng,
			&s.County, &s.State, &s.ListedAt, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan historic site row: %w", err)
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

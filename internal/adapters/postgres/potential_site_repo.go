package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/core/ports"
	"github.com/loross14/lost-and-found/internal/pkg/geospatial"
)

// PotentialSiteRepo implements ports.PotentialSiteRepository with pgx.
type PotentialSiteRepo struct {
	db *DB
}

// NewPotentialSiteRepo creates a new PotentialSiteRepo.
func NewPotentialSiteRepo(db *DB) *PotentialSiteRepo {
	return &PotentialSiteRepo{db: db}
}

const potentialSiteColumns = `
	id, job_id,
	ST_Y(location::geometry) AS lat,
	ST_X(location::geometry) AS lng,
	feature_kind, confidence, estimated_size_meters,
	COALESCE(description, ''), COALESCE(model_id, ''), COALESCE(rationale, ''),
	tile_zoom, tile_x, tile_y, review_status, created_at
`

// Insert persists a new finding.
func (r *PotentialSiteRepo) Insert(ctx context.Context, s *domain.PotentialSite) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO potential_sites
			(id, job_id, location, feature_kind, confidence, estimated_size_meters,
			 description, model_id, rationale, tile_zoom, tile_x, tile_y, review_status)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography,
		        $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, s.ID, s.JobID, s.Location.Lng, s.Location.Lat,
		s.FeatureKind, s.Confidence, s.EstimatedSizeMeters,
		s.Description, s.ModelID, s.Rationale,
		s.TileZoom, s.TileX, s.TileY, s.ReviewStatus)
	return err
}

// GetByID returns a finding by UUID.
func (r *PotentialSiteRepo) GetByID(ctx context.Context, id string) (*domain.PotentialSite, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+potentialSiteColumns+` FROM potential_sites WHERE id = $1`, id)
	return scanPotentialSite(row)
}

// ListByJob returns a page of a job's findings plus the total count.
func (r *PotentialSiteRepo) ListByJob(ctx context.Context, jobID string, offset, limit int) ([]domain.PotentialSite, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM potential_sites WHERE job_id = $1`, jobID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+potentialSiteColumns+`
		FROM potential_sites
		WHERE job_id = $1
		ORDER BY confidence DESC, created_at
		OFFSET $2 LIMIT $3
	`, jobID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sites []domain.PotentialSite
	for rows.Next() {
		s, err := scanPotentialSite(rows)
		if err != nil {
			return nil, 0, err
		}
		sites = append(sites, *s)
	}
	return sites, total, rows.Err()
}

// UpdateReviewStatus records a reviewer's verdict.
func (r *PotentialSiteRepo) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE potential_sites SET review_status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("potential site %s: %w", id, ports.ErrNotFound)
	}
	return nil
}

// ExistsNearbyVerified reports whether a verified finding lies within
// radiusMeters. A planar box prefilter narrows the rows, then the planar
// distance approximation decides.
func (r *PotentialSiteRepo) ExistsNearbyVerified(ctx context.Context, lat, lng, radiusMeters float64) (bool, error) {
	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(lat, lng, radiusMeters)

	rows, err := r.db.Pool.Query(ctx, `
		SELECT ST_Y(location::geometry), ST_X(location::geometry)
		FROM potential_sites
		WHERE review_status = 'verified'
		  AND ST_Y(location::geometry) BETWEEN $1 AND $2
		  AND ST_X(location::geometry) BETWEEN $3 AND $4
	`, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	return anyWithinPlanarRadius(rows, lat, lng, radiusMeters)
}

func scanPotentialSite(row rowScanner) (*domain.PotentialSite, error) {
	var s domain.PotentialSite
	err := row.Scan(
		&s.ID, &s.JobID,
		&s.Location.Lat, &s.Location.Lng,
		&s.FeatureKind, &s.Confidence, &s.EstimatedSizeMeters,
		&s.Description, &s.ModelID, &s.Rationale,
		&s.TileZoom, &s.TileX, &s.TileY, &s.ReviewStatus, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("scan potential site row: %w", err)
	}
	return &s, nil
}

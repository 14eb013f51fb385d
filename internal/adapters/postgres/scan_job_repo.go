package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/core/ports"
)

// ScanJobRepo implements ports.ScanJobRepository with pgx. Status changes
// are single guarded UPDATE statements, so the database serializes
// concurrent writers and the affected-row count doubles as the
// compare-and-swap result.
type ScanJobRepo struct {
	db *DB
}

// NewScanJobRepo creates a new ScanJobRepo.
func NewScanJobRepo(db *DB) *ScanJobRepo {
	return &ScanJobRepo{db: db}
}

const scanJobColumns = `
	id, label, region_name,
	north, south, east, west, zoom,
	status, total_tiles, scanned_tiles, sites_found,
	current_tile_x, current_tile_y,
	COALESCE(error_message, ''),
	created_at, started_at, paused_at, completed_at,
	run_started_at, run_started_tiles
`

// Create persists a new job row.
func (r *ScanJobRepo) Create(ctx context.Context, j *domain.ScanJob) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO scan_jobs
			(id, label, region_name, north, south, east, west, zoom,
			 status, total_tiles, scanned_tiles, sites_found,
			 current_tile_x, current_tile_y, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, j.ID, j.Label, j.RegionName,
		j.Bounds.North, j.Bounds.South, j.Bounds.East, j.Bounds.West, j.Zoom,
		j.Status, j.TotalTiles, j.ScannedTiles, j.SitesFound,
		j.CurrentTileX, j.CurrentTileY, j.CreatedAt)
	return err
}

// GetByID returns a job by UUID.
func (r *ScanJobRepo) GetByID(ctx context.Context, id string) (*domain.ScanJob, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+scanJobColumns+` FROM scan_jobs WHERE id = $1`, id)
	return scanScanJob(row)
}

// List returns all jobs, newest first.
func (r *ScanJobRepo) List(ctx context.Context) ([]domain.ScanJob, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+scanJobColumns+` FROM scan_jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.ScanJob
	for rows.Next() {
		j, err := scanScanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// Acquire moves a runnable job to scanning, stamping started_at on first run
// only and the run markers on every run. Returns false when the guard did
// not match.
func (r *ScanJobRepo) Acquire(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'scanning',
		    started_at = COALESCE(started_at, now()),
		    run_started_at = now(),
		    run_started_tiles = scanned_tiles
		WHERE id = $1 AND status IN ('queued', 'paused')
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Pause moves a scanning job to paused.
func (r *ScanJobRepo) Pause(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'paused', paused_at = now()
		WHERE id = $1 AND status = 'scanning'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Cancel moves a scanning or paused job to failed with a message.
func (r *ScanJobRepo) Cancel(ctx context.Context, id, message string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'failed', error_message = $2, completed_at = now()
		WHERE id = $1 AND status IN ('scanning', 'paused')
	`, id, message)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Complete moves a scanning job to complete.
func (r *ScanJobRepo) Complete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'complete', completed_at = now()
		WHERE id = $1 AND status = 'scanning'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Fail records an engine-level fault on any non-terminal job.
func (r *ScanJobRepo) Fail(ctx context.Context, id, message string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE scan_jobs
		SET status = 'failed', error_message = $2, completed_at = now()
		WHERE id = $1 AND status NOT IN ('complete', 'failed')
	`, id, message)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RecordProgress persists the per-tile counters and resumption cursor.
func (r *ScanJobRepo) RecordProgress(ctx context.Context, id string, scannedTiles, sitesFound, tileX, tileY int) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE scan_jobs
		SET scanned_tiles = $2, sites_found = $3,
		    current_tile_x = $4, current_tile_y = $5
		WHERE id = $1
	`, id, scannedTiles, sitesFound, tileX, tileY)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScanJob(row rowScanner) (*domain.ScanJob, error) {
	var j domain.ScanJob
	err := row.Scan(
		&j.ID, &j.Label, &j.RegionName,
		&j.Bounds.North, &j.Bounds.South, &j.Bounds.East, &j.Bounds.West, &j.Zoom,
		&j.Status, &j.TotalTiles, &j.ScannedTiles, &j.SitesFound,
		&j.CurrentTileX, &j.CurrentTileY,
		&j.ErrorMessage,
		&j.CreatedAt, &j.StartedAt, &j.PausedAt, &j.CompletedAt,
		&j.RunStartedAt, &j.RunStartedTiles,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("scan job row: %w", err)
	}
	return &j, nil
}

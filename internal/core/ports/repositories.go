package ports

import (
	"context"
	"errors"

	"github.com/loross14/lost-and-found/internal/core/domain"
)

// ErrNotFound is returned by lookups when no row matches the ID. Adapters
// map their driver's no-rows sentinel to it so callers can tell a missing
// record from a store failure.
var ErrNotFound = errors.New("not found")

// ScanJobRepository is the durable job store. It is the sole writer of scan
// job state; every status change goes through one of the guarded transition
// methods, which only apply when the job is in the expected source state and
// report whether they did. That compare-and-swap is the single-runner guard:
// two run requests for one job cannot both acquire it.
type ScanJobRepository interface {
	Create(ctx context.Context, job *domain.ScanJob) error
	GetByID(ctx context.Context, id string) (*domain.ScanJob, error)
	List(ctx context.Context) ([]domain.ScanJob, error)

	// Acquire moves a queued or paused job to scanning, stamps started_at
	// if it was never set, and records run_started_at plus the cursor at
	// the start of this run for pace measurement. Returns false if the job
	// was not in a runnable state (already running, terminal, or missing).
	Acquire(ctx context.Context, id string) (bool, error)

	// Pause moves a scanning job to paused and stamps paused_at.
	Pause(ctx context.Context, id string) (bool, error)

	// Cancel moves a scanning or paused job to failed with the given
	// message and stamps completed_at.
	Cancel(ctx context.Context, id, message string) (bool, error)

	// Complete moves a scanning job to complete and stamps completed_at.
	Complete(ctx context.Context, id string) (bool, error)

	// Fail records an engine-level fault on a non-terminal job.
	Fail(ctx context.Context, id, message string) (bool, error)

	// RecordProgress persists the per-tile counters and cursor.
	RecordProgress(ctx context.Context, id string, scannedTiles, sitesFound, tileX, tileY int) error
}

// PotentialSiteRepository persists scan findings.
type PotentialSiteRepository interface {
	Insert(ctx context.Context, site *domain.PotentialSite) error
	GetByID(ctx context.Context, id string) (*domain.PotentialSite, error)
	ListByJob(ctx context.Context, jobID string, offset, limit int) ([]domain.PotentialSite, int, error)
	UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error

	// ExistsNearbyVerified reports whether a human-verified potential site
	// lies within radiusMeters of the coordinate.
	ExistsNearbyVerified(ctx context.Context, lat, lng, radiusMeters float64) (bool, error)
}

// HistoricSiteRepository reads the imported reference register. The import
// itself is an external concern; this service only queries it.
type HistoricSiteRepository interface {
	FindInBounds(ctx context.Context, bounds domain.BoundingBox, limit int) ([]domain.HistoricSite, error)
	FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HistoricSite, error)

	// ExistsNear reports whether any registered site lies within
	// radiusMeters of the coordinate.
	ExistsNear(ctx context.Context, lat, lng, radiusMeters float64) (bool, error)
}

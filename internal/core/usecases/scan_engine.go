package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/core/ports"
	"github.com/loross14/lost-and-found/internal/pkg/metrics"
)

// ErrNotRunnable is returned by Run when the job is not in a state a run
// request may pick up (already scanning elsewhere, terminal, or missing).
var ErrNotRunnable = errors.New("job is not in a runnable state")

// EngineOptions tune the scan loop.
type EngineOptions struct {
	// TileDelay is the pause inserted between tiles to respect the rate
	// limits of the imagery and detection services.
	TileDelay time.Duration

	// ConfidenceThreshold drops candidates whose mapped confidence score is
	// below it.
	ConfidenceThreshold float64
}

// ScanEngine walks a job's tile grid in row-major order, running the
// fetch → detect → geolocate → dedupe → persist pipeline one tile at a time.
// It holds no authoritative state of its own: progress round-trips through
// the job store after every tile, and pause/cancel are observed by re-reading
// the stored status at tile boundaries. A tile already in flight always
// finishes before the loop reacts.
type ScanEngine struct {
	jobs      ports.ScanJobRepository
	sites     ports.PotentialSiteRepository
	gate      *DedupeGate
	imagery   ports.ImageryService
	detector  ports.FeatureDetector
	publisher ports.EventPublisher
	opts      EngineOptions
}

// NewScanEngine wires the engine's collaborators. publisher may be nil, in
// which case progress events are simply not emitted.
func NewScanEngine(
	jobs ports.ScanJobRepository,
	sites ports.PotentialSiteRepository,
	gate *DedupeGate,
	imagery ports.ImageryService,
	detector ports.FeatureDetector,
	publisher ports.EventPublisher,
	opts EngineOptions,
) *ScanEngine {
	return &ScanEngine{
		jobs:      jobs,
		sites:     sites,
		gate:      gate,
		imagery:   imagery,
		detector:  detector,
		publisher: publisher,
		opts:      opts,
	}
}

// Run advances the job from its persisted cursor until the tile list is
// exhausted, a pause or cancel is observed, or an engine-level fault occurs.
// Per-tile failures never abort the run: the tile is counted as scanned with
// nothing found and the loop moves on.
//
// Returned errors are engine-level (store unreachable, job record gone).
// The caller decides whether to mark the job failed.
func (e *ScanEngine) Run(ctx context.Context, jobID string) error {
	acquired, err := e.jobs.Acquire(ctx, jobID)
	if err != nil {
		return fmt.Errorf("acquire job %s: %w", jobID, err)
	}
	if !acquired {
		return ErrNotRunnable
	}

	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	metrics.ActiveScans.Inc()
	defer metrics.ActiveScans.Dec()

	log := slog.With("job_id", job.ID, "label", job.Label)
	log.Info("scan run starting",
		"zoom", job.Zoom,
		"total_tiles", job.TotalTiles,
		"cursor", job.ScannedTiles,
	)

	rng := job.TileRange()

	for idx := job.ScannedTiles; idx < job.TotalTiles; idx++ {
		if err := ctx.Err(); err != nil {
			log.Info("scan run interrupted by context", "scanned", job.ScannedTiles)
			return err
		}

		tile := rng.TileAt(idx)
		found := e.scanTile(ctx, log, job, tile)

		job.ScannedTiles = idx + 1
		job.SitesFound += found
		metrics.TilesScanned.Inc()

		// The persisted cursor points at the next unscanned tile so a
		// resume neither re-scans nor skips.
		cursor := tile
		if job.ScannedTiles < job.TotalTiles {
			cursor = rng.TileAt(job.ScannedTiles)
		}
		job.CurrentTileX, job.CurrentTileY = cursor.X, cursor.Y

		if err := e.jobs.RecordProgress(ctx, job.ID, job.ScannedTiles, job.SitesFound, cursor.X, cursor.Y); err != nil {
			return fmt.Errorf("record progress for job %s: %w", job.ID, err)
		}
		e.publishProgress(ctx, job, tile)

		if job.ScannedTiles == job.TotalTiles {
			break
		}

		if e.opts.TileDelay > 0 {
			select {
			case <-time.After(e.opts.TileDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		// Tile boundary: re-read durable status so an externally requested
		// pause or cancel takes effect before the next tile starts.
		fresh, err := e.jobs.GetByID(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("reload job %s: %w", job.ID, err)
		}
		if fresh.Status != domain.JobScanning {
			log.Info("scan run yielding", "status", fresh.Status, "scanned", job.ScannedTiles)
			return nil
		}
	}

	completed, err := e.jobs.Complete(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}
	if !completed {
		// Cancelled between the last tile and here; the terminal state wins.
		log.Info("scan run finished but job was no longer scanning")
		return nil
	}

	job.Status = domain.JobComplete
	e.publishProgress(ctx, job, rng.TileAt(job.TotalTiles-1))
	log.Info("scan complete", "scanned", job.ScannedTiles, "sites_found", job.SitesFound)
	return nil
}

// scanTile runs the per-tile pipeline and returns the number of sites
// persisted for it. All failures are logged and swallowed: a bad tile is
// treated as having found nothing.
func (e *ScanEngine) scanTile(ctx context.Context, log *slog.Logger, job *domain.ScanJob, tile domain.Tile) int {
	image, err := e.imagery.FetchTile(ctx, tile)
	if err != nil {
		log.Warn("imagery fetch failed, skipping tile", "tile_x", tile.X, "tile_y", tile.Y, "error", err)
		metrics.TileFailures.WithLabelValues("imagery").Inc()
		return 0
	}

	start := time.Now()
	result, err := e.detector.Detect(ctx, image)
	metrics.DetectionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Warn("detection failed, skipping tile", "tile_x", tile.X, "tile_y", tile.Y, "error", err)
		metrics.TileFailures.WithLabelValues("detection").Inc()
		return 0
	}

	accepted := 0
	for _, feature := range result.Features {
		score := feature.Confidence.Score()
		if score < e.opts.ConfidenceThreshold {
			metrics.LowConfidenceDropped.Inc()
			continue
		}

		location := Geolocate(tile, feature)

		duplicate, err := e.gate.IsDuplicate(ctx, location.Lat, location.Lng)
		if err != nil {
			log.Warn("dedupe query failed, dropping candidate", "error", err)
			metrics.TileFailures.WithLabelValues("dedupe").Inc()
			continue
		}
		if duplicate {
			metrics.DuplicatesSuppressed.Inc()
			continue
		}

		site := &domain.PotentialSite{
			ID:                  uuid.NewString(),
			JobID:               job.ID,
			Location:            location,
			FeatureKind:         feature.FeatureKind,
			Confidence:          score,
			EstimatedSizeMeters: feature.EstimatedSizeMeters,
			Description:         describeFeature(feature),
			ModelID:             result.ModelID,
			Rationale:           feature.Rationale,
			TileZoom:            tile.Zoom,
			TileX:               tile.X,
			TileY:               tile.Y,
			ReviewStatus:        domain.ReviewPending,
		}

		if err := e.sites.Insert(ctx, site); err != nil {
			log.Warn("persist failed, dropping candidate", "error", err)
			metrics.TileFailures.WithLabelValues("persist").Inc()
			continue
		}

		accepted++
		metrics.SitesFound.Inc()

		if e.publisher != nil {
			_ = e.publisher.PublishSiteFound(ctx, site)
		}
	}

	return accepted
}

func (e *ScanEngine) publishProgress(ctx context.Context, job *domain.ScanJob, tile domain.Tile) {
	if e.publisher == nil {
		return
	}
	_ = e.publisher.PublishProgress(ctx, &domain.ScanProgressEvent{
		JobID:        job.ID,
		Status:       job.Status,
		ScannedTiles: job.ScannedTiles,
		TotalTiles:   job.TotalTiles,
		SitesFound:   job.SitesFound,
		TileX:        tile.X,
		TileY:        tile.Y,
		Time:         time.Now(),
	})
}

func describeFeature(f domain.DetectedFeature) string {
	if f.EstimatedSizeMeters > 0 {
		return fmt.Sprintf("Possible %s, roughly %.0f m across, spotted in aerial imagery", f.FeatureKind, f.EstimatedSizeMeters)
	}
	return fmt.Sprintf("Possible %s spotted in aerial imagery", f.FeatureKind)
}

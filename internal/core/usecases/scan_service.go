package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/core/ports"
)

// Control-surface errors, mapped to HTTP statuses by the API layer.
var (
	ErrJobNotFound  = errors.New("scan job not found")
	ErrSiteNotFound = errors.New("potential site not found")
	ErrInvalidState = errors.New("action not valid in the job's current state")
)

// ScanOptions bound what a scan request may ask for.
type ScanOptions struct {
	MinZoom int
	MaxZoom int

	// Region area limits in square degrees. Degenerate boxes and boxes
	// that would tile into an unbounded amount of work are rejected before
	// a job is created.
	MinAreaSquareDegrees float64
	MaxAreaSquareDegrees float64

	// SecondsPerTile is the planning estimate used for ETAs: inter-tile
	// delay plus typical imagery and detection latency.
	SecondsPerTile float64
}

// CreateScanRequest is a validated scan request. Exactly one of RegionName
// or Bounds must be supplied.
type CreateScanRequest struct {
	Label      string              `json:"label"`
	RegionName string              `json:"region_name,omitempty"`
	Bounds     *domain.BoundingBox `json:"bounds,omitempty"`
	Zoom       int                 `json:"zoom"`
}

// JobProgress is a job together with its derived progress figures.
type JobProgress struct {
	Job             *domain.ScanJob `json:"job"`
	PercentComplete float64         `json:"percent_complete"`
	RemainingTiles  int             `json:"remaining_tiles"`
	ETASeconds      int             `json:"eta_seconds"`
	ETA             string          `json:"eta"`
}

// ScanService is the control surface for scan jobs: create, start, pause,
// resume, cancel, and progress queries. The actual tile walking happens in
// the scan worker; this service only writes job state and publishes run
// commands.
type ScanService struct {
	jobs      ports.ScanJobRepository
	publisher ports.EventPublisher
	cache     ports.CacheService
	opts      ScanOptions
}

// NewScanService creates a ScanService. publisher and cache may be nil.
func NewScanService(jobs ports.ScanJobRepository, publisher ports.EventPublisher, cache ports.CacheService, opts ScanOptions) *ScanService {
	return &ScanService{jobs: jobs, publisher: publisher, cache: cache, opts: opts}
}

// Create validates the request, resolves the region, and persists a queued
// job with its total tile count and the cursor at the first tile. A start
// command is published so the worker picks the job up.
func (s *ScanService) Create(ctx context.Context, req CreateScanRequest) (*domain.ScanJob, error) {
	if req.Label == "" {
		return nil, fmt.Errorf("label is required")
	}
	if req.Zoom < s.opts.MinZoom || req.Zoom > s.opts.MaxZoom {
		return nil, fmt.Errorf("zoom must be between %d and %d", s.opts.MinZoom, s.opts.MaxZoom)
	}

	var bounds domain.BoundingBox
	var regionName string
	switch {
	case req.RegionName != "" && req.Bounds != nil:
		return nil, fmt.Errorf("supply either a region name or a bounding box, not both")
	case req.RegionName != "":
		b, err := domain.ResolveRegion(req.RegionName)
		if err != nil {
			return nil, err
		}
		bounds = b
		regionName = req.RegionName
	case req.Bounds != nil:
		bounds = *req.Bounds
	default:
		return nil, fmt.Errorf("a region name or bounding box is required")
	}

	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	area := bounds.AreaSquareDegrees()
	if area < s.opts.MinAreaSquareDegrees {
		return nil, fmt.Errorf("region too small: %.6f sq deg (minimum %.6f)", area, s.opts.MinAreaSquareDegrees)
	}
	if area > s.opts.MaxAreaSquareDegrees {
		return nil, fmt.Errorf("region too large: %.4f sq deg (maximum %.4f)", area, s.opts.MaxAreaSquareDegrees)
	}

	rng := domain.TileRangeForBounds(bounds, req.Zoom)
	first := rng.TileAt(0)

	job := &domain.ScanJob{
		ID:           uuid.NewString(),
		Label:        req.Label,
		RegionName:   regionName,
		Bounds:       bounds,
		Zoom:         req.Zoom,
		Status:       domain.JobQueued,
		TotalTiles:   rng.Count(),
		CurrentTileX: first.X,
		CurrentTileY: first.Y,
		CreatedAt:    time.Now(),
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	// The worker only picks up jobs it is told about. A queued row whose
	// start command was lost would sit forever, so a publish failure fails
	// the job and surfaces to the caller.
	if s.publisher != nil {
		if err := s.publisher.PublishCommand(ctx, &domain.ScanCommand{Action: domain.CommandStart, JobID: job.ID}); err != nil {
			_, _ = s.jobs.Fail(ctx, job.ID, "start command was not delivered")
			return nil, fmt.Errorf("publish start command: %w", err)
		}
	}

	return job, nil
}

// Pause asks a scanning job to stop at its next tile boundary. The in-flight
// tile always finishes; the worker observes the new status afterwards.
func (s *ScanService) Pause(ctx context.Context, id string) error {
	ok, err := s.jobs.Pause(ctx, id)
	if err != nil {
		return fmt.Errorf("pause job: %w", err)
	}
	if !ok {
		return fmt.Errorf("pause %s: %w", id, ErrInvalidState)
	}
	s.invalidate(ctx, id)
	return nil
}

// Resume publishes a resume command for a paused job. The worker continues
// from the persisted cursor; no tile is re-scanned or skipped.
func (s *ScanService) Resume(ctx context.Context, id string) error {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("load job: %w", err)
	}
	if job.Status != domain.JobPaused {
		return fmt.Errorf("resume %s from %s: %w", id, job.Status, ErrInvalidState)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishCommand(ctx, &domain.ScanCommand{Action: domain.CommandResume, JobID: id}); err != nil {
			return fmt.Errorf("publish resume command: %w", err)
		}
	}
	s.invalidate(ctx, id)
	return nil
}

// Cancel terminates a scanning or paused job. Partial results stay; the job
// becomes failed with a fixed explanatory message.
func (s *ScanService) Cancel(ctx context.Context, id string) error {
	ok, err := s.jobs.Cancel(ctx, id, domain.CancelledMessage)
	if err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	if !ok {
		return fmt.Errorf("cancel %s: %w", id, ErrInvalidState)
	}
	s.invalidate(ctx, id)
	return nil
}

// Get returns a job with derived progress and ETA. Responses are cached
// briefly since the map UI polls this endpoint.
func (s *ScanService) Get(ctx context.Context, id string) (*JobProgress, error) {
	cacheKey := "scans:progress:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var p JobProgress
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
		}
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}

	p := s.progressFor(job)

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 5)
		}
	}
	return p, nil
}

// List returns all jobs, newest first.
func (s *ScanService) List(ctx context.Context) ([]domain.ScanJob, error) {
	return s.jobs.List(ctx)
}

// Regions lists the preset region names offered to the UI.
func (s *ScanService) Regions() []string {
	return domain.RegionNames()
}

func (s *ScanService) progressFor(job *domain.ScanJob) *JobProgress {
	remaining := job.RemainingTiles()
	percent := 0.0
	if job.TotalTiles > 0 {
		percent = float64(job.ScannedTiles) / float64(job.TotalTiles) * 100
	}

	secondsPerTile := s.opts.SecondsPerTile
	// Prefer the pace measured over the current run once it has some
	// history. Wall time since the first start would count time spent
	// paused and wreck the estimate after a resume.
	if job.Status == domain.JobScanning && job.RunStartedAt != nil {
		if tilesThisRun := job.ScannedTiles - job.RunStartedTiles; tilesThisRun > 5 {
			if elapsed := time.Since(*job.RunStartedAt).Seconds(); elapsed > 0 {
				secondsPerTile = elapsed / float64(tilesThisRun)
			}
		}
	}

	etaSeconds := 0
	eta := ""
	if !job.Status.Terminal() && remaining > 0 {
		etaSeconds = int(float64(remaining) * secondsPerTile)
		eta = humanizeDuration(etaSeconds)
	}

	return &JobProgress{
		Job:             job,
		PercentComplete: percent,
		RemainingTiles:  remaining,
		ETASeconds:      etaSeconds,
		ETA:             eta,
	}
}

func (s *ScanService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "scans:progress:"+id)
	}
}

// humanizeDuration renders an ETA as a rough magnitude. It is an estimate,
// not a promise, so anything finer than the leading unit is noise.
func humanizeDuration(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("about %d seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("about %d minutes", (seconds+30)/60)
	case seconds < 86400:
		return fmt.Sprintf("about %d hours", (seconds+1800)/3600)
	default:
		return fmt.Sprintf("about %d days", (seconds+43200)/86400)
	}
}

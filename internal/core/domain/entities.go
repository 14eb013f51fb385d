package domain

import (
	"time"
)

// JobStatus is the lifecycle state of a scan job.
type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobScanning JobStatus = "scanning"
	JobPaused   JobStatus = "paused"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// Terminal reports whether no further status transition is permitted.
func (s JobStatus) Terminal() bool {
	return s == JobComplete || s == JobFailed
}

// Runnable reports whether a run request may pick the job up.
func (s JobStatus) Runnable() bool {
	return s == JobQueued || s == JobPaused
}

// CancelledMessage is the fixed error message recorded when a user cancels
// a scan.
const CancelledMessage = "Cancelled by user"

// ScanJob is one region-scanning run. The job store is the sole writer of
// durable state; the engine round-trips every mutation through it, so a
// crash loses at most the in-flight tile.
type ScanJob struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	RegionName string      `json:"region_name,omitempty"` // empty for custom boxes
	Bounds     BoundingBox `json:"bounds"`
	Zoom       int         `json:"zoom"`
	Status     JobStatus   `json:"status"`

	// Progress counters. ScannedTiles doubles as the row-major resumption
	// cursor: the tile list is recomputed from Bounds+Zoom and the loop
	// seeks to this index.
	TotalTiles   int `json:"total_tiles"`
	ScannedTiles int `json:"scanned_tiles"`
	SitesFound   int `json:"sites_found"`
	CurrentTileX int `json:"current_tile_x"`
	CurrentTileY int `json:"current_tile_y"`

	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	PausedAt     *time.Time `json:"paused_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// Pace markers for the current run, stamped on every acquire. StartedAt
	// keeps the first start for display; ETA math uses these so time spent
	// paused never counts against the measured pace.
	RunStartedAt    *time.Time `json:"run_started_at,omitempty"`
	RunStartedTiles int        `json:"run_started_tiles,omitempty"`
}

// RemainingTiles returns the number of tiles not yet visited.
func (j *ScanJob) RemainingTiles() int {
	remaining := j.TotalTiles - j.ScannedTiles
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TileRange recomputes the tile rectangle the job iterates over. Bounds and
// Zoom are immutable once the job is created, so this is deterministic.
func (j *ScanJob) TileRange() TileRange {
	return TileRangeForBounds(j.Bounds, j.Zoom)
}

// ConfidenceLevel is the three-valued categorical rating returned by the
// detection model.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Score maps the categorical level to its fixed numeric value. The model
// does not return calibrated probabilities, so three clearly spaced buckets
// are used instead of inventing false precision. Unknown levels score as low.
func (c ConfidenceLevel) Score() float64 {
	switch c {
	case ConfidenceHigh:
		return 0.85
	case ConfidenceMedium:
		return 0.60
	default:
		return 0.35
	}
}

// DetectedFeature is one candidate feature reported by the detection model
// for a single tile image. Positions are relative image coordinates in
// [0,1]×[0,1] with origin top-left. Not persisted directly; accepted
// candidates become PotentialSite rows.
type DetectedFeature struct {
	FeatureKind         string          `json:"feature_kind"`
	Confidence          ConfidenceLevel `json:"confidence"`
	RelX                float64         `json:"rel_x"`
	RelY                float64         `json:"rel_y"`
	EstimatedSizeMeters float64         `json:"estimated_size_meters"`
	Rationale           string          `json:"rationale"`
}

// DetectionResult is the parsed response of one detection call.
type DetectionResult struct {
	Features  []DetectedFeature `json:"features"`
	Rationale string            `json:"rationale"`
	ModelID   string            `json:"model_id"`
}

// ReviewStatus is the human-review state of a potential site.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewVerified ReviewStatus = "verified"
	ReviewRejected ReviewStatus = "rejected"
	ReviewSkipped  ReviewStatus = "skipped"
)

// ValidReviewStatus reports whether s is one of the accepted review states.
func ValidReviewStatus(s ReviewStatus) bool {
	switch s {
	case ReviewPending, ReviewVerified, ReviewRejected, ReviewSkipped:
		return true
	}
	return false
}

// PotentialSite is a persisted finding from a scan. Review status is mutated
// by a human reviewer, never by the scanning engine.
type PotentialSite struct {
	ID                  string       `json:"id"`
	JobID               string       `json:"job_id"`
	Location            GeoPoint     `json:"location"`
	FeatureKind         string       `json:"feature_kind"`
	Confidence          float64      `json:"confidence"`
	EstimatedSizeMeters float64      `json:"estimated_size_meters"`
	Description         string       `json:"description"`
	ModelID             string       `json:"model_id"`
	Rationale           string       `json:"rationale"`
	TileZoom            int          `json:"tile_zoom"`
	TileX               int          `json:"tile_x"`
	TileY               int          `json:"tile_y"`
	ReviewStatus        ReviewStatus `json:"review_status"`
	CreatedAt           time.Time    `json:"created_at"`
}

// HistoricSite is one entry of the imported reference register. These are
// read-only for this service: the map UI browses them and the deduplication
// gate checks candidates against them.
type HistoricSite struct {
	ID        string     `json:"id"`
	RefNum    string     `json:"ref_num"`
	Name      string     `json:"name"`
	Category  string     `json:"category"`
	Location  GeoPoint   `json:"location"`
	County    string     `json:"county,omitempty"`
	State     string     `json:"state,omitempty"`
	ListedAt  *time.Time `json:"listed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

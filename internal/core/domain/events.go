package domain

import "time"

// ScanProgressEvent is published after every tile so map clients can render
// live progress.
type ScanProgressEvent struct {
	JobID        string    `json:"job_id"`
	Status       JobStatus `json:"status"`
	ScannedTiles int       `json:"scanned_tiles"`
	TotalTiles   int       `json:"total_tiles"`
	SitesFound   int       `json:"sites_found"`
	TileX        int       `json:"tile_x"`
	TileY        int       `json:"tile_y"`
	Time         time.Time `json:"time"`
}

// ScanCommandAction is a control-plane instruction for the scan worker.
type ScanCommandAction string

const (
	CommandStart  ScanCommandAction = "start"
	CommandResume ScanCommandAction = "resume"
)

// ScanCommand asks the scan worker to begin or continue running a job.
// Pause and cancel are not commands: they are written straight to the job
// store and observed by the running loop at the next tile boundary.
type ScanCommand struct {
	Action ScanCommandAction `json:"action"`
	JobID  string            `json:"job_id"`
}

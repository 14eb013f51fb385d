package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/core/usecases"
)

// CreateScanHandler validates a scan request and queues a new job.
// POST /v1/scans {"label":"Cahokia sweep","region_name":"cahokia","zoom":15}
func CreateScanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req usecases.CreateScanRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		job, err := deps.Scans.Create(c.Context(), req)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		return c.Status(fiber.StatusCreated).JSON(job)
	}
}

// ListScansHandler returns all scan jobs, newest first.
func ListScansHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		jobs, err := deps.Scans.List(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		total := len(jobs)
		if offset >= total {
			jobs = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			jobs = jobs[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: jobs, Pagination: pg})
	}
}

// GetScanHandler returns a job with derived progress and ETA.
func GetScanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "scan id is required")
		}
		progress, err := deps.Scans.Get(c.Context(), id)
		if err != nil {
			if errors.Is(err, usecases.ErrJobNotFound) {
				return errNotFound(c, "scan job not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(progress)
	}
}

// PauseScanHandler asks a running scan to stop at its next tile boundary.
func PauseScanHandler(deps *Dependencies) fiber.Handler {
	return scanControlHandler(deps, "paused", func(deps *Dependencies, c *fiber.Ctx, id string) error {
		return deps.Scans.Pause(c.Context(), id)
	})
}

// ResumeScanHandler continues a paused scan from its saved cursor.
func ResumeScanHandler(deps *Dependencies) fiber.Handler {
	return scanControlHandler(deps, "resuming", func(deps *Dependencies, c *fiber.Ctx, id string) error {
		return deps.Scans.Resume(c.Context(), id)
	})
}

// CancelScanHandler terminates a scan. Findings already persisted remain.
func CancelScanHandler(deps *Dependencies) fiber.Handler {
	return scanControlHandler(deps, "cancelled", func(deps *Dependencies, c *fiber.Ctx, id string) error {
		return deps.Scans.Cancel(c.Context(), id)
	})
}

func scanControlHandler(deps *Dependencies, verb string, action func(*Dependencies, *fiber.Ctx, string) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "scan id is required")
		}
		if err := action(deps, c, id); err != nil {
			switch {
			case errors.Is(err, usecases.ErrJobNotFound):
				return errNotFound(c, "scan job not found")
			case errors.Is(err, usecases.ErrInvalidState):
				return errConflict(c, err.Error())
			default:
				return errInternal(c, err.Error())
			}
		}
		return c.JSON(fiber.Map{"id": id, "status": verb})
	}
}

// ScanSitesHandler returns a page of a job's findings, highest confidence first.
func ScanSitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "scan id is required")
		}
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)

		sites, total, err := deps.Sites.ListByJob(c.Context(), id, offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: sites, Pagination: pg})
	}
}

// GetSiteHandler returns a single potential site by ID.
func GetSiteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "site id is required")
		}
		site, err := deps.Sites.Get(c.Context(), id)
		if err != nil {
			if errors.Is(err, usecases.ErrSiteNotFound) {
				return errNotFound(c, "site not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(site)
	}
}

// ReviewSiteHandler records a reviewer's verdict on a finding.
// PATCH /v1/sites/:id/review {"status":"verified"}
func ReviewSiteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "site id is required")
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		status := domain.ReviewStatus(req.Status)
		if !domain.ValidReviewStatus(status) {
			return errBadRequest(c, "status must be one of: pending, verified, rejected, skipped")
		}

		if err := deps.Sites.Review(c.Context(), id, status); err != nil {
			if errors.Is(err, usecases.ErrSiteNotFound) {
				return errNotFound(c, "site not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"id": id, "review_status": req.Status})
	}
}

// HistoricSitesHandler returns registered historic sites inside a map viewport.
// GET /v1/historic-sites?north=38.8&south=38.5&east=-89.9&west=-90.3
func HistoricSitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bounds := domain.BoundingBox{
			North: c.QueryFloat("north", 0),
			South: c.QueryFloat("south", 0),
			East:  c.QueryFloat("east", 0),
			West:  c.QueryFloat("west", 0),
		}
		if bounds.North == 0 && bounds.South == 0 && bounds.East == 0 && bounds.West == 0 {
			return errBadRequest(c, "north, south, east, and west are required")
		}
		limit := c.QueryInt("limit", 500)

		sites, err := deps.Sites.HistoricInBounds(c.Context(), bounds, limit)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(sites)
	}
}

// NearbyHistoricSitesHandler returns registered sites within a radius of a point.
func NearbyHistoricSitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Presence, not value: (0, 0) is a real coordinate.
		if c.Query("lat") == "" || c.Query("lng") == "" {
			return errBadRequest(c, "lat and lng are required")
		}
		lat := c.QueryFloat("lat", 0)
		lng := c.QueryFloat("lng", 0)
		radius := c.QueryFloat("radius", 1000)
		limit := c.QueryInt("limit", 50)
		if radius <= 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}

		sites, err := deps.Sites.HistoricNearby(c.Context(), lat, lng, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(sites)
	}
}

// RegionsHandler lists the preset regions offered to the UI.
func RegionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names := deps.Scans.Regions()
		regions := make([]fiber.Map, 0, len(names))
		for _, name := range names {
			b, err := domain.ResolveRegion(name)
			if err != nil {
				continue
			}
			regions = append(regions, fiber.Map{"name": name, "bounds": b})
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(regions)
	}
}

// StatsHandler returns row counts across the scanning tables.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats struct {
			ScanJobs       int `json:"scan_jobs"`
			ActiveScans    int `json:"active_scans"`
			PotentialSites int `json:"potential_sites"`
			VerifiedSites  int `json:"verified_sites"`
			HistoricSites  int `json:"historic_sites"`
		}
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM scan_jobs),
				(SELECT count(*) FROM scan_jobs WHERE status = 'scanning'),
				(SELECT count(*) FROM potential_sites),
				(SELECT count(*) FROM potential_sites WHERE review_status = 'verified'),
				(SELECT count(*) FROM historic_sites)
		`)
		if err := row.Scan(&stats.ScanJobs, &stats.ActiveScans, &stats.PotentialSites,
			&stats.VerifiedSites, &stats.HistoricSites); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

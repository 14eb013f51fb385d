package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/core/ports"
)

// SiteService serves potential-site review and historic-site map queries.
type SiteService struct {
	potential ports.PotentialSiteRepository
	historic  ports.HistoricSiteRepository
	cache     ports.CacheService
}

// NewSiteService creates a SiteService. cache may be nil.
func NewSiteService(potential ports.PotentialSiteRepository, historic ports.HistoricSiteRepository, cache ports.CacheService) *SiteService {
	return &SiteService{potential: potential, historic: historic, cache: cache}
}

// ListByJob returns a page of a job's findings plus the total count.
func (s *SiteService) ListByJob(ctx context.Context, jobID string, offset, limit int) ([]domain.PotentialSite, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.potential.ListByJob(ctx, jobID, offset, limit)
}

// Get returns a single potential site.
func (s *SiteService) Get(ctx context.Context, id string) (*domain.PotentialSite, error) {
	site, err := s.potential.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrSiteNotFound
		}
		return nil, fmt.Errorf("load site: %w", err)
	}
	return site, nil
}

// Review records a human reviewer's verdict on a finding. The scanning
// engine never touches review state.
func (s *SiteService) Review(ctx context.Context, id string, status domain.ReviewStatus) error {
	if !domain.ValidReviewStatus(status) {
		return fmt.Errorf("invalid review status %q", status)
	}
	if err := s.potential.UpdateReviewStatus(ctx, id, status); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrSiteNotFound
		}
		return fmt.Errorf("update review status: %w", err)
	}
	return nil
}

// HistoricInBounds returns registered sites inside a map viewport. Cached:
// the register only changes on re-import.
func (s *SiteService) HistoricInBounds(ctx context.Context, bounds domain.BoundingBox, limit int) ([]domain.HistoricSite, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 2000 {
		limit = 500
	}

	cacheKey := fmt.Sprintf("sites:bounds:%.4f:%.4f:%.4f:%.4f:%d",
		bounds.North, bounds.South, bounds.East, bounds.West, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var sites []domain.HistoricSite
			if err := json.Unmarshal(data, &sites); err == nil {
				return sites, nil
			}
		}
	}

	sites, err := s.historic.FindInBounds(ctx, bounds, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(sites); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}
	return sites, nil
}

// HistoricNearby returns registered sites within radiusMeters of a point.
func (s *SiteService) HistoricNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HistoricSite, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.historic.FindNearby(ctx, lat, lng, radiusMeters, limit)
}

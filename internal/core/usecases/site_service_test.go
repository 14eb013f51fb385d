package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/core/ports"
	"github.com/loross14/lost-and-found/internal/core/usecases"
)

type mockSiteRepoWithList struct {
	mockSiteRepo
	getFn    func(ctx context.Context, id string) (*domain.PotentialSite, error)
	listFn   func(ctx context.Context, jobID string, offset, limit int) ([]domain.PotentialSite, int, error)
	reviewFn func(ctx context.Context, id string, status domain.ReviewStatus) error
}

func (m *mockSiteRepoWithList) GetByID(ctx context.Context, id string) (*domain.PotentialSite, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}

func (m *mockSiteRepoWithList) ListByJob(ctx context.Context, jobID string, offset, limit int) ([]domain.PotentialSite, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, jobID, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockSiteRepoWithList) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error {
	if m.reviewFn != nil {
		return m.reviewFn(ctx, id, status)
	}
	return nil
}

type mockHistoricRepoWithQueries struct {
	mockHistoricRepo
	inBoundsFn func(ctx context.Context, b domain.BoundingBox, limit int) ([]domain.HistoricSite, error)
}

func (m *mockHistoricRepoWithQueries) FindInBounds(ctx context.Context, b domain.BoundingBox, limit int) ([]domain.HistoricSite, error) {
	if m.inBoundsFn != nil {
		return m.inBoundsFn(ctx, b, limit)
	}
	return nil, nil
}

func TestSiteService_ListByJob_ClampsLimit(t *testing.T) {
	repo := &mockSiteRepoWithList{
		listFn: func(ctx context.Context, jobID string, offset, limit int) ([]domain.PotentialSite, int, error) {
			if limit != 50 {
				t.Errorf("expected limit clamped to 50, got %d", limit)
			}
			if offset != 0 {
				t.Errorf("expected negative offset clamped to 0, got %d", offset)
			}
			return nil, 0, nil
		},
	}
	svc := usecases.NewSiteService(repo, &mockHistoricRepo{}, nil)
	_, _, _ = svc.ListByJob(context.Background(), "job-1", -5, 9999)
}

func TestSiteService_Get_ErrorMapping(t *testing.T) {
	svc := usecases.NewSiteService(&mockSiteRepoWithList{}, &mockHistoricRepo{}, nil)
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, usecases.ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound, got %v", err)
	}

	broken := &mockSiteRepoWithList{
		getFn: func(ctx context.Context, id string) (*domain.PotentialSite, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc = usecases.NewSiteService(broken, &mockHistoricRepo{}, nil)
	if _, err := svc.Get(context.Background(), "s1"); errors.Is(err, usecases.ErrSiteNotFound) {
		t.Error("a store failure must not read as not-found")
	}
}

func TestSiteService_Review_InvalidStatus(t *testing.T) {
	svc := usecases.NewSiteService(&mockSiteRepoWithList{}, &mockHistoricRepo{}, nil)
	if err := svc.Review(context.Background(), "abc", "approved"); err == nil {
		t.Error("expected error for invalid review status")
	}
}

func TestSiteService_Review_Valid(t *testing.T) {
	var recorded domain.ReviewStatus
	repo := &mockSiteRepoWithList{
		reviewFn: func(ctx context.Context, id string, status domain.ReviewStatus) error {
			recorded = status
			return nil
		},
	}
	svc := usecases.NewSiteService(repo, &mockHistoricRepo{}, nil)
	if err := svc.Review(context.Background(), "abc", domain.ReviewVerified); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorded != domain.ReviewVerified {
		t.Errorf("expected verified recorded, got %s", recorded)
	}
}

func TestSiteService_HistoricInBounds_RejectsBadBounds(t *testing.T) {
	svc := usecases.NewSiteService(&mockSiteRepoWithList{}, &mockHistoricRepoWithQueries{}, nil)
	bad := domain.BoundingBox{North: 38.5, South: 38.8, East: -89.9, West: -90.3}
	if _, err := svc.HistoricInBounds(context.Background(), bad, 100); err == nil {
		t.Error("expected error for inverted bounds")
	}
}

func TestSiteService_HistoricInBounds(t *testing.T) {
	repo := &mockHistoricRepoWithQueries{
		inBoundsFn: func(ctx context.Context, b domain.BoundingBox, limit int) ([]domain.HistoricSite, error) {
			return []domain.HistoricSite{
				{ID: "1", Name: "Cahokia Mounds", RefNum: "66000899"},
			}, nil
		},
	}
	svc := usecases.NewSiteService(&mockSiteRepoWithList{}, repo, nil)

	sites, err := svc.HistoricInBounds(context.Background(),
		domain.BoundingBox{North: 38.8, South: 38.5, East: -89.9, West: -90.3}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sites) != 1 || sites[0].Name != "Cahokia Mounds" {
		t.Errorf("unexpected sites: %+v", sites)
	}
}

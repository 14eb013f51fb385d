package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/loross14/lost-and-found/internal/adapters/http"
	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/core/ports"
	"github.com/loross14/lost-and-found/internal/core/usecases"
)

// ---- Mock repositories ----

type mockJobRepo struct {
	createFn  func(ctx context.Context, job *domain.ScanJob) error
	getByIDFn func(ctx context.Context, id string) (*domain.ScanJob, error)
	listFn    func(ctx context.Context) ([]domain.ScanJob, error)
	pauseFn   func(ctx context.Context, id string) (bool, error)
	cancelFn  func(ctx context.Context, id, message string) (bool, error)
}

func (m *mockJobRepo) Create(ctx context.Context, job *domain.ScanJob) error {
	if m.createFn != nil {
		return m.createFn(ctx, job)
	}
	return nil
}
func (m *mockJobRepo) GetByID(ctx context.Context, id string) (*domain.ScanJob, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}
func (m *mockJobRepo) List(ctx context.Context) ([]domain.ScanJob, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}
func (m *mockJobRepo) Acquire(ctx context.Context, id string) (bool, error) { return false, nil }
func (m *mockJobRepo) Pause(ctx context.Context, id string) (bool, error) {
	if m.pauseFn != nil {
		return m.pauseFn(ctx, id)
	}
	return false, nil
}
func (m *mockJobRepo) Cancel(ctx context.Context, id, message string) (bool, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, id, message)
	}
	return false, nil
}
func (m *mockJobRepo) Complete(ctx context.Context, id string) (bool, error) { return false, nil }
func (m *mockJobRepo) Fail(ctx context.Context, id, message string) (bool, error) {
	return false, nil
}
func (m *mockJobRepo) RecordProgress(ctx context.Context, id string, scannedTiles, sitesFound, tileX, tileY int) error {
	return nil
}

type mockPotentialRepo struct {
	getByIDFn      func(ctx context.Context, id string) (*domain.PotentialSite, error)
	listByJobFn    func(ctx context.Context, jobID string, offset, limit int) ([]domain.PotentialSite, int, error)
	updateReviewFn func(ctx context.Context, id string, status domain.ReviewStatus) error
}

func (m *mockPotentialRepo) Insert(ctx context.Context, site *domain.PotentialSite) error {
	return nil
}
func (m *mockPotentialRepo) GetByID(ctx context.Context, id string) (*domain.PotentialSite, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}
func (m *mockPotentialRepo) ListByJob(ctx context.Context, jobID string, offset, limit int) ([]domain.PotentialSite, int, error) {
	if m.listByJobFn != nil {
		return m.listByJobFn(ctx, jobID, offset, limit)
	}
	return nil, 0, nil
}
func (m *mockPotentialRepo) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error {
	if m.updateReviewFn != nil {
		return m.updateReviewFn(ctx, id, status)
	}
	return nil
}
func (m *mockPotentialRepo) ExistsNearbyVerified(ctx context.Context, lat, lng, radiusMeters float64) (bool, error) {
	return false, nil
}

type mockHistoricRepo struct {
	findInBoundsFn func(ctx context.Context, bounds domain.BoundingBox, limit int) ([]domain.HistoricSite, error)
	findNearbyFn   func(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HistoricSite, error)
}

func (m *mockHistoricRepo) FindInBounds(ctx context.Context, bounds domain.BoundingBox, limit int) ([]domain.HistoricSite, error) {
	if m.findInBoundsFn != nil {
		return m.findInBoundsFn(ctx, bounds, limit)
	}
	return nil, nil
}
func (m *mockHistoricRepo) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.HistoricSite, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lng, radiusMeters, limit)
	}
	return nil, nil
}
func (m *mockHistoricRepo) ExistsNear(ctx context.Context, lat, lng, radiusMeters float64) (bool, error) {
	return false, nil
}

// ---- Test helpers ----

var testOpts = usecases.ScanOptions{
	MinZoom:              12,
	MaxZoom:              17,
	MinAreaSquareDegrees: 0.0001,
	MaxAreaSquareDegrees: 4.0,
	SecondsPerTile:       4,
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Scans: usecases.NewScanService(&mockJobRepo{}, nil, nil, testOpts),
		Sites: usecases.NewSiteService(&mockPotentialRepo{}, &mockHistoricRepo{}, nil),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// ---- Scan handler tests ----

func TestCreateScan_Success(t *testing.T) {
	var created *domain.ScanJob
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Scans = usecases.NewScanService(&mockJobRepo{
			createFn: func(ctx context.Context, job *domain.ScanJob) error {
				created = job
				return nil
			},
		}, nil, nil, testOpts)
	})
	app := setupApp(deps)

	payload := `{"label":"Cahokia sweep","region_name":"cahokia","zoom":13}`
	req := httptest.NewRequest("POST", "/v1/scans", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var job domain.ScanJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatal(err)
	}
	if job.Status != domain.JobQueued {
		t.Errorf("expected queued status, got %s", job.Status)
	}
	if job.TotalTiles != 100 {
		t.Errorf("expected 100 total tiles at zoom 13, got %d", job.TotalTiles)
	}
	if created == nil {
		t.Fatal("expected job to reach the repository")
	}
}

func TestCreateScan_MissingLabel(t *testing.T) {
	app := setupApp(makeDeps())

	payload := `{"region_name":"cahokia","zoom":13}`
	req := httptest.NewRequest("POST", "/v1/scans", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestCreateScan_ZoomOutOfRange(t *testing.T) {
	app := setupApp(makeDeps())

	payload := `{"label":"too deep","region_name":"cahokia","zoom":20}`
	req := httptest.NewRequest("POST", "/v1/scans", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetScan_Progress(t *testing.T) {
	started := time.Now().Add(-time.Minute)
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Scans = usecases.NewScanService(&mockJobRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.ScanJob, error) {
				return &domain.ScanJob{
					ID:           id,
					Label:        "Cahokia sweep",
					Status:       domain.JobQueued,
					TotalTiles:   100,
					ScannedTiles: 40,
					StartedAt:    &started,
				}, nil
			},
		}, nil, nil, testOpts)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/scans/job-1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var progress struct {
		Job             domain.ScanJob `json:"job"`
		PercentComplete float64        `json:"percent_complete"`
		RemainingTiles  int            `json:"remaining_tiles"`
		ETA             string         `json:"eta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil {
		t.Fatal(err)
	}
	if progress.PercentComplete != 40 {
		t.Errorf("expected 40%% complete, got %f", progress.PercentComplete)
	}
	if progress.RemainingTiles != 60 {
		t.Errorf("expected 60 remaining tiles, got %d", progress.RemainingTiles)
	}
	if progress.ETA == "" {
		t.Error("expected an ETA for a non-terminal job")
	}
}

func TestGetScan_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/scans/nonexistent", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetScan_StoreFailureIs500(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Scans = usecases.NewScanService(&mockJobRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.ScanJob, error) {
				return nil, fmt.Errorf("connection refused")
			},
		}, nil, nil, testOpts)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/scans/job-1", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 500 {
		t.Fatalf("a store outage must not read as 404: got %d", resp.StatusCode)
	}
}

func TestListScans_Pagination(t *testing.T) {
	jobs := make([]domain.ScanJob, 5)
	for i := range jobs {
		jobs[i] = domain.ScanJob{ID: fmt.Sprintf("job-%d", i), Label: fmt.Sprintf("Scan %d", i)}
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Scans = usecases.NewScanService(&mockJobRepo{
			listFn: func(ctx context.Context) ([]domain.ScanJob, error) { return jobs, nil },
		}, nil, nil, testOpts)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/scans?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.ScanJob `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 jobs in page, got %d", len(result.Data))
	}
	if result.Pagination.Offset != 2 {
		t.Errorf("expected offset 2, got %d", result.Pagination.Offset)
	}
}

func TestListScans_LinkHeader(t *testing.T) {
	jobs := make([]domain.ScanJob, 10)
	for i := range jobs {
		jobs[i] = domain.ScanJob{ID: fmt.Sprintf("job-%d", i)}
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Scans = usecases.NewScanService(&mockJobRepo{
			listFn: func(ctx context.Context) ([]domain.ScanJob, error) { return jobs, nil },
		}, nil, nil, testOpts)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/scans?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	if link == "" {
		t.Fatal("expected Link header, got empty")
	}
	if !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %s", link)
	}
	if !strings.Contains(link, `rel="last"`) {
		t.Errorf("expected last link, got %s", link)
	}
}

// ---- Scan control tests ----

func TestPauseScan_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Scans = usecases.NewScanService(&mockJobRepo{
			pauseFn: func(ctx context.Context, id string) (bool, error) { return true, nil },
		}, nil, nil, testOpts)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/scans/job-1/pause", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]string
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "paused" {
		t.Errorf("expected paused, got %s", result["status"])
	}
}

func TestPauseScan_Conflict(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Scans = usecases.NewScanService(&mockJobRepo{
			pauseFn: func(ctx context.Context, id string) (bool, error) { return false, nil },
		}, nil, nil, testOpts)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/scans/job-1/pause", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "conflict" {
		t.Errorf("expected conflict error, got %s", apiErr.Code)
	}
}

func TestResumeScan_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/scans/nonexistent/resume", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCancelScan_Success(t *testing.T) {
	var gotMessage string
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Scans = usecases.NewScanService(&mockJobRepo{
			cancelFn: func(ctx context.Context, id, message string) (bool, error) {
				gotMessage = message
				return true, nil
			},
		}, nil, nil, testOpts)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("POST", "/v1/scans/job-1/cancel", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotMessage != domain.CancelledMessage {
		t.Errorf("expected cancellation message %q, got %q", domain.CancelledMessage, gotMessage)
	}
}

// ---- Potential site tests ----

func TestScanSites_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockPotentialRepo{
			listByJobFn: func(ctx context.Context, jobID string, offset, limit int) ([]domain.PotentialSite, int, error) {
				return []domain.PotentialSite{
					{ID: "s1", JobID: jobID, FeatureKind: "mound", Confidence: 0.85},
				}, 1, nil
			},
		}, &mockHistoricRepo{}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/scans/job-1/sites", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.PotentialSite `json:"data"`
		Pagination struct{ Total int }    `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 1 {
		t.Errorf("expected total 1, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 1 || result.Data[0].FeatureKind != "mound" {
		t.Errorf("unexpected sites: %+v", result.Data)
	}
}

func TestGetSite_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/sites/nonexistent", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestReviewSite_Success(t *testing.T) {
	var gotStatus domain.ReviewStatus
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockPotentialRepo{
			updateReviewFn: func(ctx context.Context, id string, status domain.ReviewStatus) error {
				gotStatus = status
				return nil
			},
		}, &mockHistoricRepo{}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("PATCH", "/v1/sites/s1/review", strings.NewReader(`{"status":"verified"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if gotStatus != domain.ReviewVerified {
		t.Errorf("expected verified, got %s", gotStatus)
	}
}

func TestReviewSite_InvalidStatus(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("PATCH", "/v1/sites/s1/review", strings.NewReader(`{"status":"approved"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Historic site tests ----

func TestHistoricSites_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockPotentialRepo{}, &mockHistoricRepo{
			findInBoundsFn: func(ctx context.Context, bounds domain.BoundingBox, limit int) ([]domain.HistoricSite, error) {
				return []domain.HistoricSite{
					{ID: "h1", RefNum: "66000899", Name: "Cahokia Mounds"},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/historic-sites?north=38.8&south=38.5&east=-89.9&west=-90.3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var sites []domain.HistoricSite
	json.NewDecoder(resp.Body).Decode(&sites)
	if len(sites) != 1 || sites[0].Name != "Cahokia Mounds" {
		t.Errorf("unexpected sites: %+v", sites)
	}
}

func TestHistoricSites_MissingBounds(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/historic-sites", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHistoricSites_CacheControlHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/historic-sites?north=38.8&south=38.5&east=-89.9&west=-90.3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cc := resp.Header.Get("Cache-Control")
	if cc != "public, max-age=600" {
		t.Errorf("expected Cache-Control header, got %q", cc)
	}
}

func TestNearbyHistoricSites_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/historic-sites/nearby", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestNearbyHistoricSites_OriginIsValid(t *testing.T) {
	app := setupApp(makeDeps())

	// (0, 0) is a real coordinate, not a missing parameter.
	req := httptest.NewRequest("GET", "/v1/historic-sites/nearby?lat=0&lng=0", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 for the null-island point, got %d", resp.StatusCode)
	}
}

func TestNearbyHistoricSites_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/historic-sites/nearby?lat=38.65&lng=-90.06&radius=99999", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Region tests ----

func TestRegions_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/regions", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var regions []struct {
		Name   string             `json:"name"`
		Bounds domain.BoundingBox `json:"bounds"`
	}
	json.NewDecoder(resp.Body).Decode(&regions)
	if len(regions) == 0 {
		t.Fatal("expected preset regions, got none")
	}
	found := false
	for _, r := range regions {
		if r.Name == "cahokia" {
			found = true
			if r.Bounds.North <= r.Bounds.South {
				t.Errorf("degenerate bounds for cahokia: %+v", r.Bounds)
			}
		}
	}
	if !found {
		t.Error("expected cahokia in preset regions")
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	deps := makeDeps()
	// DB, NATS, Cache are nil → should report not ready
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- X-API-Version header ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := resp.Header.Get("X-API-Version")
	if v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()

	app.Use(handler.AccessLogMiddleware())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}

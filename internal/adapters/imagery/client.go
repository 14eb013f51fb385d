package imagery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/pkg/metrics"
)

// Client implements ports.ImageryService against slippy-map tile servers.
// If the primary source fails, the same tile is requested from a
// lower-resolution fallback source; callers never learn which one answered.
type Client struct {
	primaryURL  string
	fallbackURL string
	httpClient  *http.Client
}

// New creates an imagery client. URLs are templates with {z}, {x}, {y}
// placeholders. fallbackURL may be empty to disable the fallback.
func New(primaryURL, fallbackURL string, timeout time.Duration) *Client {
	return &Client{
		primaryURL:  primaryURL,
		fallbackURL: fallbackURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// FetchTile returns the raster image for one tile.
func (c *Client) FetchTile(ctx context.Context, tile domain.Tile) ([]byte, error) {
	data, primaryErr := c.fetch(ctx, c.primaryURL, tile)
	if primaryErr == nil {
		metrics.ImageryFetches.WithLabelValues("primary").Inc()
		return data, nil
	}

	if c.fallbackURL == "" {
		metrics.ImageryFetchErrors.Inc()
		return nil, primaryErr
	}

	slog.Debug("primary imagery source failed, trying fallback",
		"tile_x", tile.X, "tile_y", tile.Y, "error", primaryErr)

	data, fallbackErr := c.fetch(ctx, c.fallbackURL, tile)
	if fallbackErr != nil {
		metrics.ImageryFetchErrors.Inc()
		return nil, fmt.Errorf("primary: %v; fallback: %w", primaryErr, fallbackErr)
	}
	metrics.ImageryFetches.WithLabelValues("fallback").Inc()
	return data, nil
}

func (c *Client) fetch(ctx context.Context, urlTemplate string, tile domain.Tile) ([]byte, error) {
	url := expandTileURL(urlTemplate, tile)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tile body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("tile server returned empty body")
	}
	return data, nil
}

func expandTileURL(template string, tile domain.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(tile.Zoom),
		"{x}", strconv.Itoa(tile.X),
		"{y}", strconv.Itoa(tile.Y),
	).Replace(template)
}

package ports

import (
	"context"

	"github.com/loross14/lost-and-found/internal/core/domain"
)

// ImageryService fetches raster imagery for one tile. Implementations may
// substitute an alternate lower-resolution source on primary failure; the
// engine is agnostic to which source served the bytes.
type ImageryService interface {
	FetchTile(ctx context.Context, tile domain.Tile) ([]byte, error)
}

// FeatureDetector sends one tile image to the vision model and returns its
// structured findings. A response that cannot be parsed into the expected
// shape is an error; the engine treats it as a tile failure.
type FeatureDetector interface {
	Detect(ctx context.Context, image []byte) (*domain.DetectionResult, error)
}

// EventPublisher publishes scan events and worker commands to the message
// broker.
type EventPublisher interface {
	PublishProgress(ctx context.Context, ev *domain.ScanProgressEvent) error
	PublishSiteFound(ctx context.Context, site *domain.PotentialSite) error
	PublishCommand(ctx context.Context, cmd *domain.ScanCommand) error
}

// CommandSubscriber delivers scan-control commands to the scan worker.
type CommandSubscriber interface {
	SubscribeCommands(ctx context.Context, handler func(ctx context.Context, cmd *domain.ScanCommand) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

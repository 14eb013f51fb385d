package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lostfound",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Scan engine metrics
	TilesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "scan",
		Name:      "tiles_scanned_total",
		Help:      "Total imagery tiles visited by the scan engine",
	})

	TileFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "scan",
		Name:      "tile_failures_total",
		Help:      "Tiles skipped after a pipeline stage failed",
	}, []string{"stage"}) // imagery | detection | dedupe | persist

	SitesFound = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "scan",
		Name:      "sites_found_total",
		Help:      "Potential sites persisted by the scan engine",
	})

	DuplicatesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "scan",
		Name:      "duplicates_suppressed_total",
		Help:      "Candidates dropped because a known or verified site was nearby",
	})

	LowConfidenceDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "scan",
		Name:      "low_confidence_dropped_total",
		Help:      "Candidates dropped below the confidence threshold",
	})

	ActiveScans = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lostfound",
		Subsystem: "scan",
		Name:      "active_jobs",
		Help:      "Scan jobs currently being advanced by this worker",
	})

	DetectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lostfound",
		Subsystem: "vision",
		Name:      "detection_duration_seconds",
		Help:      "Latency of detection model calls",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
	})

	ImageryFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "imagery",
		Name:      "fetches_total",
		Help:      "Tile imagery fetches by serving source",
	}, []string{"source"}) // primary | fallback

	ImageryFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "imagery",
		Name:      "fetch_errors_total",
		Help:      "Tile imagery fetches that failed on every source",
	})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lostfound",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lostfound",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lostfound",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lostfound",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from pgx pool stats.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}

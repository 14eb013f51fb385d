package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/loross14/lost-and-found/internal/adapters/http"
	natsadapter "github.com/loross14/lost-and-found/internal/adapters/nats"
	"github.com/loross14/lost-and-found/internal/adapters/postgres"
	"github.com/loross14/lost-and-found/internal/adapters/valkey"
	"github.com/loross14/lost-and-found/internal/core/ports"
	"github.com/loross14/lost-and-found/internal/core/usecases"
	"github.com/loross14/lost-and-found/internal/pkg/config"
	"github.com/loross14/lost-and-found/internal/pkg/logging"
	"github.com/loross14/lost-and-found/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("lostfound-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// NATS publisher (scan start/resume commands, JetStream streams)
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Repos
	jobRepo := postgres.NewScanJobRepo(db)
	potentialRepo := postgres.NewPotentialSiteRepo(db)
	historicRepo := postgres.NewHistoricSiteRepo(db)

	// Use cases
	scanSvc := usecases.NewScanService(jobRepo, publisherOrNil(publisher), cacheOrNil(cache), usecases.ScanOptions{
		MinZoom:              cfg.Scan.MinZoom,
		MaxZoom:              cfg.Scan.MaxZoom,
		MinAreaSquareDegrees: cfg.Scan.MinAreaSqDeg,
		MaxAreaSquareDegrees: cfg.Scan.MaxAreaSqDeg,
		SecondsPerTile:       cfg.Scan.SecondsPerTile,
	})
	siteSvc := usecases.NewSiteService(potentialRepo, historicRepo, cacheOrNil(cache))

	deps := &http.Dependencies{
		Scans: scanSvc,
		Sites: siteSvc,
		NATS:  natsConn,
		DB:    db,
		Cache: cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Lost and Found API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// Optional adapters must reach the services as untyped nils, not typed
// nil pointers wrapped in an interface.
func publisherOrNil(p *natsadapter.Publisher) ports.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func cacheOrNil(c *valkey.Cache) ports.CacheService {
	if c == nil {
		return nil
	}
	return c
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/loross14/lost-and-found/internal/adapters/imagery"
	natsadapter "github.com/loross14/lost-and-found/internal/adapters/nats"
	"github.com/loross14/lost-and-found/internal/adapters/postgres"
	"github.com/loross14/lost-and-found/internal/adapters/vision"
	"github.com/loross14/lost-and-found/internal/core/domain"
	"github.com/loross14/lost-and-found/internal/core/usecases"
	"github.com/loross14/lost-and-found/internal/pkg/config"
	"github.com/loross14/lost-and-found/internal/pkg/logging"
	"github.com/loross14/lost-and-found/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("lostfound-scanner")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer publisher.Close()

	subscriber, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer subscriber.Close()

	jobRepo := postgres.NewScanJobRepo(db)
	potentialRepo := postgres.NewPotentialSiteRepo(db)
	historicRepo := postgres.NewHistoricSiteRepo(db)

	gate := usecases.NewDedupeGate(historicRepo, potentialRepo, cfg.Scan.DedupRadiusMeters)

	imageryClient := imagery.New(
		cfg.Imagery.PrimaryURL,
		cfg.Imagery.FallbackURL,
		time.Duration(cfg.Imagery.TimeoutSeconds)*time.Second,
	)
	detector := vision.New(
		cfg.Vision.BaseURL,
		cfg.Vision.APIKey,
		cfg.Vision.Model,
		time.Duration(cfg.Vision.TimeoutSeconds)*time.Second,
		cfg.Vision.MaxAttempts,
	)

	engine := usecases.NewScanEngine(jobRepo, potentialRepo, gate, imageryClient, detector, publisher, usecases.EngineOptions{
		TileDelay:           time.Duration(cfg.Scan.TileDelayMS) * time.Millisecond,
		ConfidenceThreshold: cfg.Scan.ConfidenceThreshold,
	})

	// One goroutine per job at most within this process. Across processes
	// the store-level status transition is the arbiter.
	var running sync.Map
	var wg sync.WaitGroup

	err = subscriber.SubscribeCommands(ctx, func(cmdCtx context.Context, cmd *domain.ScanCommand) error {
		switch cmd.Action {
		case domain.CommandStart, domain.CommandResume:
		default:
			slog.Warn("ignoring unknown scan command", "action", cmd.Action)
			return nil
		}

		if _, busy := running.LoadOrStore(cmd.JobID, struct{}{}); busy {
			slog.Info("job already running here, skipping command", "job_id", cmd.JobID, "action", cmd.Action)
			return nil
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer running.Delete(cmd.JobID)

			err := engine.Run(ctx, cmd.JobID)
			switch {
			case err == nil:
			case errors.Is(err, usecases.ErrNotRunnable):
				slog.Info("job not runnable, command dropped", "job_id", cmd.JobID)
			case errors.Is(err, context.Canceled):
				slog.Info("scan interrupted by shutdown", "job_id", cmd.JobID)
			default:
				slog.Error("scan run failed", "job_id", cmd.JobID, "error", err)
				if _, ferr := jobRepo.Fail(context.Background(), cmd.JobID, err.Error()); ferr != nil {
					slog.Error("could not mark job failed", "job_id", cmd.JobID, "error", ferr)
				}
			}
		}()
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe commands: %v", err)
	}

	slog.Info("scan worker started",
		"tile_delay_ms", cfg.Scan.TileDelayMS,
		"confidence_threshold", cfg.Scan.ConfidenceThreshold,
		"dedup_radius_m", cfg.Scan.DedupRadiusMeters,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, stopping scans at tile boundaries", "signal", sig.String())
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		slog.Warn("scan runs did not finish in time, exiting anyway")
	}

	slog.Info("scan worker stopped")
}

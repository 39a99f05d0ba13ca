package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/amqp"
	"finanzas/internal/cli"
	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/insights"
	"finanzas/internal/ledger"
	"finanzas/internal/log"
	"finanzas/internal/notify"
	gsheet "finanzas/internal/sheets/google"
	"finanzas/internal/storage"
	"finanzas/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting finanzas-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := run(logger, cfg); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(logger *log.Logger, cfg *config.Config) error {
	if cfg.LocalBackend != config.LocalSQLite {
		return fmt.Errorf("worker needs LOCAL_BACKEND=%s, got %q", config.LocalSQLite, cfg.LocalBackend)
	}
	loc, err := cli.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	// The worker shares the server's SQLite file to read the latest snapshot
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	defer repo.Close()

	g, gctx := errgroup.WithContext(ctx)

	syncWorker, amqpClient, err := setupSync(gctx, logger, cfg, repo)
	if err != nil {
		return err
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	if syncWorker != nil {
		// Process any snapshot saved while the worker was down
		if err := syncWorker.StartupSyncCheck(gctx); err != nil {
			logger.Error("Failed startup sync check", log.FieldError, err)
		}
		if amqpClient != nil {
			g.Go(func() error {
				return amqpClient.ConsumeSnapshotSync(gctx, syncWorker.HandleSyncMessage)
			})
		}
		g.Go(func() error { return syncWorker.RunPeriodic(gctx, cfg.SyncInterval) })
	} else {
		logger.Info("Skipping remote sync - REMOTE_BACKEND is not sheets")
	}

	if cfg.ReminderEnabled {
		clock, err := notify.ParseClock(cfg.ReminderTime)
		if err != nil {
			return err
		}
		scheduler := notify.NewScheduler(clock, loc, snapshotInsights(repo, loc), notify.LogNotifier{Logger: logger}, logger)
		g.Go(func() error { return scheduler.Run(gctx) })
		logger.Info("Daily reminder scheduled", "at", clock.String(), "timezone", loc.String())
	}

	if syncWorker == nil && !cfg.ReminderEnabled {
		return errors.New("nothing to run: configure REMOTE_BACKEND=sheets or enable REMINDER_ENABLED")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// setupSync returns a nil worker when no remote store is configured and a
// nil client when no broker is.
func setupSync(ctx context.Context, logger *log.Logger, cfg *config.Config, repo *storage.SQLiteRepository) (*worker.SyncWorker, *amqp.Client, error) {
	if cfg.RemoteBackend != config.RemoteSheets {
		return nil, nil, nil
	}
	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSnapshotSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	syncWorker := worker.NewSyncWorker(repo, sheetsClient, logger)

	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled, relying on periodic sync", "interval", cfg.SyncInterval.String())
		return syncWorker, nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	return syncWorker, client.WithLogger(logger), nil
}

// snapshotInsights evaluates the rules against the snapshot currently in
// SQLite, so the worker sees what the server last saved.
func snapshotInsights(repo *storage.SQLiteRepository, loc *time.Location) notify.Source {
	engine := insights.NewEngine(insights.DefaultThresholds())
	return notify.SourceFunc(func(ctx context.Context) ([]insights.Insight, error) {
		snap, ok, err := repo.Load(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			snap = core.DefaultSnapshot()
		}
		st := ledger.New(snap, ledger.WithLocation(loc))
		return engine.Analyze(st.Transactions(), st.Today()), nil
	})
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/backend"
	"finanzas/internal/cache"
	"finanzas/internal/cli"
	"finanzas/internal/config"
	apphttp "finanzas/internal/http"
	"finanzas/internal/ledger"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(logger, cfg); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(logger *log.Logger, cfg *config.Config) error {
	loc, err := cli.LoadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend config: %w", err)
	}
	backends, err := backend.NewFactory(logger).Create(ctx, backendCfg)
	if err != nil {
		return err
	}
	defer cli.RunCleanup(logger, cfg.ShutdownTimeout, "backends", func(context.Context) error {
		return backends.Cleanup()
	})

	views := cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL)
	opts := []services.Option{
		services.WithLogger(logger),
		services.WithViewCache(views),
		services.WithStoreOptions(ledger.WithLocation(loc)),
	}
	if backends.Publisher != nil {
		opts = append(opts, services.WithPublisher(backends.Publisher))
	}
	svc := services.NewLedgerService(backends.Chain(logger), backends.Saver(logger), opts...)

	loaded := svc.Load(ctx)
	logger.Info("Ledger loaded",
		log.FieldSource, loaded.Source,
		log.FieldVersion, svc.Version(),
		"failed_sources", len(loaded.Errors))

	srv := apphttp.NewServer(":"+cfg.Port, svc, logger)

	manager := cache.NewManager(logger)
	manager.Register(views)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finanzas server",
			"port", cfg.Port,
			"local_backend", cfg.LocalBackend,
			"remote_backend", cfg.RemoteBackend,
			"amqp", backends.Publisher != nil,
			"timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if cfg.CacheTTL <= 0 {
			return nil
		}
		return manager.Run(gctx, cfg.CacheTTL)
	})
	g.Go(func() error {
		<-gctx.Done()
		cli.RunCleanup(logger, cfg.ShutdownTimeout, "http server", srv.Shutdown)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if svc.SyncPending() {
		logger.Warn("Exiting with unsynced remote changes")
	}
	return nil
}

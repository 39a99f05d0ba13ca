package backend

import (
	"context"
	"errors"
	"fmt"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/persistence"
	gsheet "finanzas/internal/sheets/google"
	"finanzas/internal/sheets/memory"
	"finanzas/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the local store, the remote store and, when configured,
// the AMQP publisher. A broker that cannot be reached is logged and
// skipped; the worker's periodic sync covers the gap.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &Result{}
	var closers []func() error

	switch config.Local {
	case LocalSQLite:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Local, res.SQLite = repo, repo
		closers = append(closers, repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite local store", "db_path", config.SQLiteDBPath)
	case LocalMemory:
		res.Local = memory.New()
		f.logger.InfoContext(ctx, "Initialized in-memory local store")
	}

	switch config.Remote {
	case RemoteSheets:
		cli, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSnapshotSheet)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		res.Remote = cli
		f.logger.InfoContext(ctx, "Initialized Google Sheets remote store")
	case RemoteMemory:
		res.Remote = memory.New()
		f.logger.InfoContext(ctx, "Initialized in-memory remote store")
	}

	if config.SyncViaAMQP() {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without sync messages", log.FieldError, err)
		} else {
			res.Publisher = client.WithLogger(f.logger)
			closers = append(closers, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	res.Cleanup = func() error { return closeAll(closers) }
	return res, nil
}

func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Chain loads from the remote store first, then the local cache, then
// the first-run defaults.
func (r *Result) Chain(logger *log.Logger) persistence.Chain {
	sources := make([]persistence.Source, 0, 2)
	if r.Remote != nil {
		sources = append(sources, r.Remote)
	}
	if r.Local != nil {
		sources = append(sources, r.Local)
	}
	return persistence.Chain{Sources: sources, Defaults: core.DefaultSnapshot, Logger: logger}
}

// Saver writes the remote inline only when no publisher hands that job
// to the worker.
func (r *Result) Saver(logger *log.Logger) *persistence.Saver {
	var local, remote persistence.Sink
	if r.Local != nil {
		local = r.Local
	}
	if r.Remote != nil && r.Publisher == nil {
		remote = r.Remote
	}
	return persistence.NewSaver(local, remote, logger)
}

// Package worker pushes the locally cached ledger snapshot to the remote
// document store, driven by AMQP messages with a polling fallback.
package worker

import (
	"context"
	"fmt"
	"time"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/sheets"
	"finanzas/internal/storage"
)

// LocalStore is the part of the SQLite repository the worker needs.
type LocalStore interface {
	Load(ctx context.Context) (core.Snapshot, bool, error)
	SyncState(ctx context.Context) (storage.SyncState, error)
	MarkSynced(ctx context.Context, revision int64) error
}

// SyncWorker copies the local snapshot to the remote store whenever the
// local revision is ahead of the last synced one.
type SyncWorker struct {
	local  LocalStore
	remote sheets.SnapshotWriter
	logger *log.Logger
}

func NewSyncWorker(local LocalStore, remote sheets.SnapshotWriter, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{local: local, remote: remote, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleSyncMessage processes one snapshot sync message. The message only
// triggers the sync: the newest local snapshot is what gets pushed.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SnapshotSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message",
		log.FieldVersion, msg.Version,
		"saved_at", msg.SavedAt)

	synced, err := w.SyncPending(ctx)
	if err != nil {
		return err
	}
	if !synced {
		w.logger.DebugContext(ctx, "Remote already current, message ignored", log.FieldVersion, msg.Version)
	}
	return nil
}

// SyncPending pushes the local snapshot when the remote lags. It reports
// whether a push happened.
func (w *SyncWorker) SyncPending(ctx context.Context) (bool, error) {
	state, err := w.local.SyncState(ctx)
	if err != nil {
		return false, fmt.Errorf("read sync state: %w", err)
	}
	if !state.Pending() {
		return false, nil
	}

	snap, ok, err := w.local.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("load local snapshot: %w", err)
	}
	if !ok {
		return false, nil
	}

	if err := w.remote.Save(ctx, snap); err != nil {
		return false, &core.PersistenceError{Op: log.OpSync, Source: "remote", Err: err}
	}

	if err := w.local.MarkSynced(ctx, state.Revision); err != nil {
		// The push worked; a stale marker only costs a redundant push.
		w.logger.ErrorContext(ctx, "Failed to mark snapshot as synced",
			log.FieldRevision, state.Revision, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "Snapshot synced to remote",
		log.FieldRevision, state.Revision,
		"transactions", len(snap.Transactions))
	return true, nil
}

// StartupSyncCheck recovers from messages lost while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.SyncPending(ctx)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed", "pushed", synced)
	return nil
}

// RunPeriodic calls SyncPending every interval until ctx is done. Errors
// are logged and the loop continues.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.SyncPending(ctx); err != nil {
				w.logger.WarnContext(ctx, "Periodic sync failed", log.FieldError, err)
			}
		}
	}
}

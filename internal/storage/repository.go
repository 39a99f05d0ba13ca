// Package storage is the on-device cache of the ledger: one SQLite row
// holding the latest snapshot as JSON, plus the bookkeeping the sync
// worker needs to know whether the remote copy is current.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finanzas/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// SyncState describes how far the remote copy lags the local one.
type SyncState struct {
	Revision       int64
	SyncedRevision int64
	SavedAt        time.Time
	SyncedAt       time.Time
}

// Pending reports whether the local snapshot has not reached the remote.
func (s SyncState) Pending() bool { return s.Revision > s.SyncedRevision }

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps the single-row upserts serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Name() string { return "sqlite" }

// Load returns the stored snapshot. ok is false when nothing was saved yet
// or the snapshot was cleared.
func (r *SQLiteRepository) Load(ctx context.Context) (core.Snapshot, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM ledger_snapshot WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("query snapshot: %w", err)
	}
	if payload == "" {
		return core.Snapshot{}, false, nil
	}

	var snap core.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

// Save replaces the stored snapshot and bumps the revision.
func (r *SQLiteRepository) Save(ctx context.Context, snap core.Snapshot) error {
	if snap.SavedAt.IsZero() {
		snap.SavedAt = r.now().UTC()
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ledger_snapshot (id, payload, revision, saved_at)
		VALUES (1, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			revision = ledger_snapshot.revision + 1,
			saved_at = excluded.saved_at`,
		string(payload), snap.SavedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		"transactions", len(snap.Transactions),
		"activity", len(snap.Activity),
		"bytes", len(payload))
	return nil
}

// Clear drops the stored snapshot. The row and its revision counters stay,
// so revisions keep increasing across a clear and a late MarkSynced for an
// earlier revision cannot cover a newer save.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE ledger_snapshot SET payload = '' WHERE id = 1`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// SyncState reads the revision bookkeeping. The zero state is returned
// when nothing was saved yet.
func (r *SQLiteRepository) SyncState(ctx context.Context) (SyncState, error) {
	var st SyncState
	var savedAt, syncedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT revision, synced_revision, saved_at, synced_at FROM ledger_snapshot WHERE id = 1`,
	).Scan(&st.Revision, &st.SyncedRevision, &savedAt, &syncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SyncState{}, nil
	}
	if err != nil {
		return SyncState{}, fmt.Errorf("query sync state: %w", err)
	}
	st.SavedAt, _ = time.Parse(timeLayout, savedAt)
	st.SyncedAt, _ = time.Parse(timeLayout, syncedAt)
	return st, nil
}

// MarkSynced records that revision reached the remote store. Older
// revisions never move the marker backwards and the marker never passes
// the current revision.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, revision int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE ledger_snapshot
		SET synced_revision = ?, synced_at = ?
		WHERE id = 1 AND synced_revision < ? AND revision >= ?`,
		revision, r.now().UTC().Format(timeLayout), revision, revision)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

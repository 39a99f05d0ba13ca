package sheets

import (
	"context"

	"finanzas/internal/core"
)

// Ports for the remote snapshot document adapters.
type (
	SnapshotReader interface {
		// Load returns ok=false when the document holds no snapshot yet.
		Load(ctx context.Context) (snap core.Snapshot, ok bool, err error)
	}

	SnapshotWriter interface {
		// Save replaces the whole document. Last write wins.
		Save(ctx context.Context, snap core.Snapshot) error
	}

	SnapshotClearer interface {
		Clear(ctx context.Context) error
	}

	// SnapshotStore is a complete remote document store.
	SnapshotStore interface {
		Name() string
		SnapshotReader
		SnapshotWriter
		SnapshotClearer
	}
)

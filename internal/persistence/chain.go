// Package persistence connects the in-memory ledger to its stores. A Chain
// picks the snapshot to start from and a Saver writes every change to the
// local cache first and the remote document second.
package persistence

import (
	"context"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// SourceDefaults names the generator at the end of every chain.
const SourceDefaults = "defaults"

type Source interface {
	Name() string
	// Load returns ok=false when the source holds no snapshot.
	Load(ctx context.Context) (snap core.Snapshot, ok bool, err error)
}

type Sink interface {
	Name() string
	Save(ctx context.Context, snap core.Snapshot) error
}

type Clearer interface {
	Clear(ctx context.Context) error
}

// Chain tries Sources in order and falls back to Defaults.
type Chain struct {
	Sources  []Source
	Defaults func() core.Snapshot
	Logger   *log.Logger
}

// Loaded is the outcome of Chain.Load.
type Loaded struct {
	Snapshot core.Snapshot
	// Source is the name of the source that answered.
	Source string
	// Errors holds a *core.PersistenceError per failed source.
	Errors []error
}

// Load never fails: a source that errors or has nothing is skipped and the
// defaults generator answers last.
func (c Chain) Load(ctx context.Context) Loaded {
	logger := c.Logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}
	logger = logger.WithComponent(log.ComponentPersistence)

	var out Loaded
	for _, src := range c.Sources {
		if src == nil {
			continue
		}
		snap, ok, err := src.Load(ctx)
		if err != nil {
			perr := &core.PersistenceError{Op: log.OpLoad, Source: src.Name(), Err: err}
			out.Errors = append(out.Errors, perr)
			logger.WarnContext(ctx, "Snapshot source failed, trying next",
				log.FieldSource, src.Name(), log.FieldError, perr.Error())
			continue
		}
		if !ok {
			logger.DebugContext(ctx, "Snapshot source is empty", log.FieldSource, src.Name())
			continue
		}
		out.Snapshot = snap
		out.Source = src.Name()
		logger.InfoContext(ctx, "Snapshot loaded", log.FieldSource, out.Source,
			"transactions", len(snap.Transactions))
		return out
	}

	defaults := c.Defaults
	if defaults == nil {
		defaults = core.DefaultSnapshot
	}
	out.Snapshot = defaults()
	out.Source = SourceDefaults
	logger.InfoContext(ctx, "No stored snapshot, starting from defaults")
	return out
}

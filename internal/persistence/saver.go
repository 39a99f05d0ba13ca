package persistence

import (
	"context"
	"errors"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

// Saver writes snapshots to the local cache and then the remote store.
// A failed remote write stays pending and is retried by the next Save.
// Either sink may be nil.
type Saver struct {
	local  Sink
	remote Sink
	logger *log.Logger

	mu      sync.Mutex
	pending bool
}

func NewSaver(local, remote Sink, logger *log.Logger) *Saver {
	if logger == nil {
		logger = log.Discard()
	}
	return &Saver{
		local:  local,
		remote: remote,
		logger: logger.WithComponent(log.ComponentPersistence),
	}
}

// Save returns one *core.PersistenceError per failed sink, joined.
// Saves are serialized so a slow remote cannot reorder snapshots.
func (s *Saver) Save(ctx context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.local != nil {
		if err := s.local.Save(ctx, snap); err != nil {
			perr := &core.PersistenceError{Op: log.OpSave, Source: s.local.Name(), Err: err}
			s.logger.ErrorContext(ctx, "Local save failed", log.FieldSource, s.local.Name(), log.FieldError, err.Error())
			errs = append(errs, perr)
		}
	}

	if s.remote != nil {
		if s.pending {
			s.logger.InfoContext(ctx, "Retrying pending remote save", log.FieldSource, s.remote.Name())
		}
		if err := s.remote.Save(ctx, snap); err != nil {
			s.pending = true
			perr := &core.PersistenceError{Op: log.OpSave, Source: s.remote.Name(), Err: err}
			s.logger.WarnContext(ctx, "Remote save failed, will retry on next change",
				log.FieldSource, s.remote.Name(), log.FieldError, err.Error())
			errs = append(errs, perr)
		} else {
			s.pending = false
		}
	}

	return errors.Join(errs...)
}

// Pending reports whether the remote store missed the last change.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// ClearLocal drops the local cache when it supports clearing.
func (s *Saver) ClearLocal(ctx context.Context) error {
	c, ok := s.local.(Clearer)
	if !ok {
		return nil
	}
	if err := c.Clear(ctx); err != nil {
		return &core.PersistenceError{Op: log.OpClear, Source: s.local.Name(), Err: err}
	}
	return nil
}

// HasRemote reports whether saves reach a remote store inline.
func (s *Saver) HasRemote() bool { return s.remote != nil }

package memory

import (
	"context"
	"sync"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

// Store is an in-process remote document store for development and tests.
type Store struct {
	mu    sync.Mutex
	snap  core.Snapshot
	ok    bool
	saves int
	err   error
}

var _ ports.SnapshotStore = (*Store)(nil)

func New() *Store { return &Store{} }

// NewWith returns a store already holding snap.
func NewWith(snap core.Snapshot) *Store {
	return &Store{snap: snap.Clone(), ok: true}
}

func (s *Store) Name() string { return "memory" }

// Fail makes every later call return err. A nil err heals the store.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Saves counts successful writes.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Store) Load(_ context.Context) (core.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return core.Snapshot{}, false, s.err
	}
	if !s.ok {
		return core.Snapshot{}, false, nil
	}
	return s.snap.Clone(), true, nil
}

func (s *Store) Save(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snap = snap.Clone()
	s.ok = true
	s.saves++
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snap = core.Snapshot{}
	s.ok = false
	return nil
}

// Package ledger holds the authoritative in-memory household ledger:
// profiles, the category and necessity sets, transactions and the capped
// activity log. Every mutation goes through Store, which validates input
// before touching state and records the action in the activity log.
package ledger

import (
	"slices"
	"strings"
	"sync"
	"time"

	"finanzas/internal/core"
)

// MaxActivityEntries caps the activity log. Older entries are evicted
// from the tail.
const MaxActivityEntries = 500

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Store is safe for concurrent use. Readers get copies.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time
	loc *time.Location

	profiles     []core.Profile
	activeID     int64
	categories   []string
	necessities  []string
	transactions []core.Transaction
	activity     []core.ActivityEntry

	lastTxID int64
	version  int64
}

// New builds a store from a snapshot, repairing anything a partial or
// hand-edited document could be missing.
func New(snap core.Snapshot, opts ...Option) *Store {
	s := &Store{
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore(snap)
	return s
}

func (s *Store) restore(snap core.Snapshot) {
	snap = snap.Clone()

	s.profiles = snap.Profiles
	if len(s.profiles) == 0 {
		s.profiles = core.DefaultProfiles()
	}
	s.activeID = snap.ActiveProfileID
	if _, ok := s.findProfile(s.activeID); !ok {
		s.activeID = s.profiles[0].ID
		for _, p := range s.profiles {
			if p.ID < s.activeID {
				s.activeID = p.ID
			}
		}
	}

	s.categories = dedupe(snap.Categories)
	if len(s.categories) == 0 {
		s.categories = core.DefaultCategories()
	}
	s.necessities = dedupe(snap.Necessities)
	if len(s.necessities) == 0 {
		s.necessities = core.DefaultNecessities()
	}

	s.transactions = snap.Transactions
	if s.transactions == nil {
		s.transactions = []core.Transaction{}
	}
	for _, tx := range s.transactions {
		if tx.ID > s.lastTxID {
			s.lastTxID = tx.ID
		}
	}

	s.activity = snap.Activity
	if s.activity == nil {
		s.activity = []core.ActivityEntry{}
	}
	if len(s.activity) > MaxActivityEntries {
		s.activity = s.activity[:MaxActivityEntries]
	}
}

// Snapshot returns a deep copy of the full ledger state.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Snapshot{
		Profiles:        s.profiles,
		ActiveProfileID: s.activeID,
		Categories:      s.categories,
		Necessities:     s.necessities,
		Transactions:    s.transactions,
		Activity:        s.activity,
	}.Clone()
}

// Version increases by one on every applied mutation.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Today is the current calendar day in the store's location.
func (s *Store) Today() core.Date {
	return core.DateOf(s.clock())
}

func (s *Store) Location() *time.Location {
	return s.loc
}

func (s *Store) Profiles() []core.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Profile(nil), s.profiles...)
}

func (s *Store) Profile(id int64) (core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.findProfile(id)
	if !ok {
		return core.Profile{}, core.NotFound("profile", id)
	}
	return s.profiles[i], nil
}

func (s *Store) ActiveProfile() core.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeProfile()
}

func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.categories...)
}

func (s *Store) Necessities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.necessities...)
}

// Transactions returns all transactions in insertion order.
func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.transactions...)
}

func (s *Store) Transaction(id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.findTransaction(id)
	if !ok {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	return s.transactions[i], nil
}

// Activity returns the log newest first.
func (s *Store) Activity() []core.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.ActivityEntry(nil), s.activity...)
}

func (s *Store) clock() time.Time {
	return s.now().In(s.loc)
}

// touch must be called with the write lock held.
func (s *Store) touch() {
	s.version++
}

func (s *Store) findProfile(id int64) (int, bool) {
	for i, p := range s.profiles {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) findTransaction(id int64) (int, bool) {
	for i, tx := range s.transactions {
		if tx.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *Store) activeProfile() core.Profile {
	if i, ok := s.findProfile(s.activeID); ok {
		return s.profiles[i]
	}
	return core.Profile{ID: s.activeID}
}

func contains(set []string, v string) bool {
	return slices.Contains(set, v)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

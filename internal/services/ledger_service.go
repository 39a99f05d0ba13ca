package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/insights"
	"finanzas/internal/ledger"
	"finanzas/internal/log"
	"finanzas/internal/persistence"
)

// Publisher announces that a new snapshot was saved locally.
type Publisher interface {
	PublishSnapshotSync(ctx context.Context, version int64, savedAt time.Time) error
}

// Option configures a LedgerService.
type Option func(*LedgerService)

func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithViewCache(c *cache.LRUCache[any]) Option {
	return func(s *LedgerService) { s.views = c }
}

func WithInsightEngine(e *insights.Engine) Option {
	return func(s *LedgerService) { s.engine = e }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

// WithStoreOptions is passed to every ledger.Store the service builds.
func WithStoreOptions(opts ...ledger.Option) Option {
	return func(s *LedgerService) { s.storeOpts = append(s.storeOpts, opts...) }
}

// LedgerService owns the ledger store. Mutations run against the store,
// then the full snapshot is saved, then a sync message is published.
type LedgerService struct {
	store     atomic.Pointer[ledger.Store]
	storeOpts []ledger.Option

	chain     persistence.Chain
	saver     *persistence.Saver
	publisher Publisher
	views     *cache.LRUCache[any]
	engine    *insights.Engine
	logger    *log.Logger

	// mu orders mutate+save pairs so snapshots reach the sinks in
	// version order.
	mu sync.Mutex
}

// NewLedgerService starts from the default ledger; call Load to bootstrap
// from persistence.
func NewLedgerService(chain persistence.Chain, saver *persistence.Saver, opts ...Option) *LedgerService {
	s := &LedgerService{chain: chain, saver: saver}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	if s.saver == nil {
		s.saver = persistence.NewSaver(nil, nil, s.logger)
	}
	if s.views == nil {
		s.views = cache.NewLRUCache[any](64, time.Minute)
	}
	if s.engine == nil {
		s.engine = insights.NewEngine(insights.DefaultThresholds())
	}
	s.store.Store(ledger.New(core.DefaultSnapshot(), s.storeOpts...))
	return s
}

func (s *LedgerService) current() *ledger.Store { return s.store.Load() }

// Load replaces the in-memory ledger with the first snapshot the chain
// yields. It reports the winning source.
func (s *LedgerService) Load(ctx context.Context) persistence.Loaded {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chain.Logger == nil {
		s.chain.Logger = s.logger
	}
	loaded := s.chain.Load(ctx)
	s.store.Store(ledger.New(loaded.Snapshot, s.storeOpts...))
	s.views.Purge()

	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldSource, loaded.Source,
		"transactions", len(loaded.Snapshot.Transactions),
		"profiles", len(loaded.Snapshot.Profiles))
	return loaded
}

// mutate applies fn and, when it succeeds, persists the new snapshot. A
// non-nil error with a valid result means the change is applied in
// memory but did not reach every sink.
func mutate[T any](ctx context.Context, s *LedgerService, op string, fn func(*ledger.Store) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := fn(s.current())
	if err != nil {
		return result, err
	}
	return result, s.persist(ctx, op)
}

func (s *LedgerService) persist(ctx context.Context, op string) error {
	st := s.current()
	snap := st.Snapshot()
	snap.SavedAt = time.Now().In(st.Location())
	version := st.Version()

	err := s.saver.Save(ctx, snap)
	if err != nil {
		s.logger.WarnContext(ctx, "Snapshot not fully persisted",
			log.FieldOperation, op, log.FieldVersion, version, log.FieldError, err.Error())
	}

	if s.publisher != nil {
		if perr := s.publisher.PublishSnapshotSync(ctx, version, snap.SavedAt); perr != nil {
			// The worker's startup and periodic checks pick the change up later.
			s.logger.ErrorContext(ctx, "Failed to publish sync message",
				log.FieldVersion, version, log.FieldError, perr.Error())
		}
	}
	return err
}

// IsPersistenceOnly reports whether err only carries persistence
// failures, meaning the mutation itself was applied.
func IsPersistenceOnly(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, core.ErrPersistence) &&
		!errors.Is(err, core.ErrValidation) &&
		!errors.Is(err, core.ErrNotFound)
}

// SyncPending reports whether the inline remote store missed a change.
func (s *LedgerService) SyncPending() bool { return s.saver.Pending() }

func (s *LedgerService) AddTransaction(ctx context.Context, in ledger.NewTransaction) (core.Transaction, error) {
	return mutate(ctx, s, log.OpCreate, func(st *ledger.Store) (core.Transaction, error) {
		tx, err := st.AddTransaction(in)
		if err == nil {
			s.logger.InfoContext(ctx, "Transaction added",
				log.NewFields().WithTransaction(tx.ID, tx.Amount, tx.Category).ToSlice()...)
		}
		return tx, err
	})
}

func (s *LedgerService) AddQuickTransaction(ctx context.Context, q ledger.QuickEntry) (core.Transaction, error) {
	return mutate(ctx, s, log.OpCreate, func(st *ledger.Store) (core.Transaction, error) {
		return st.AddQuickTransaction(q)
	})
}

func (s *LedgerService) EditTransaction(ctx context.Context, id int64, patch ledger.TransactionPatch) (core.Transaction, error) {
	return mutate(ctx, s, log.OpUpdate, func(st *ledger.Store) (core.Transaction, error) {
		return st.EditTransaction(id, patch)
	})
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return mutate(ctx, s, log.OpDelete, func(st *ledger.Store) (core.Transaction, error) {
		return st.DeleteTransaction(id)
	})
}

func (s *LedgerService) AddIncome(ctx context.Context, profileID, base, extra int64) (core.Profile, error) {
	return mutate(ctx, s, log.OpUpdate, func(st *ledger.Store) (core.Profile, error) {
		return st.AddIncome(profileID, base, extra)
	})
}

func (s *LedgerService) SetRecurringIncome(ctx context.Context, profileID, base, extra int64) (core.Profile, error) {
	return mutate(ctx, s, log.OpUpdate, func(st *ledger.Store) (core.Profile, error) {
		return st.SetRecurringIncome(profileID, base, extra)
	})
}

func (s *LedgerService) AddProfile(ctx context.Context, name string) (core.Profile, error) {
	return mutate(ctx, s, log.OpCreate, func(st *ledger.Store) (core.Profile, error) {
		return st.AddProfile(name)
	})
}

func (s *LedgerService) RenameProfile(ctx context.Context, id int64, name string) (core.Profile, error) {
	return mutate(ctx, s, log.OpUpdate, func(st *ledger.Store) (core.Profile, error) {
		return st.RenameProfile(id, name)
	})
}

func (s *LedgerService) SetAvatar(ctx context.Context, id int64, ref string) (core.Profile, error) {
	return mutate(ctx, s, log.OpUpdate, func(st *ledger.Store) (core.Profile, error) {
		return st.SetAvatar(id, ref)
	})
}

func (s *LedgerService) SwitchProfile(ctx context.Context, id int64) (core.Profile, error) {
	return mutate(ctx, s, log.OpUpdate, func(st *ledger.Store) (core.Profile, error) {
		return st.SwitchProfile(id)
	})
}

// AddCategory reports whether the category was new. Adding an existing
// name changes nothing and is not persisted.
func (s *LedgerService) AddCategory(ctx context.Context, name string) (bool, error) {
	return s.addToSet(ctx, (*ledger.Store).AddCategory, name)
}

func (s *LedgerService) AddNecessityLevel(ctx context.Context, name string) (bool, error) {
	return s.addToSet(ctx, (*ledger.Store).AddNecessityLevel, name)
}

func (s *LedgerService) addToSet(ctx context.Context, add func(*ledger.Store, string) (bool, error), name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := add(s.current(), name)
	if err != nil || !added {
		return added, err
	}
	return true, s.persist(ctx, log.OpCreate)
}

func (s *LedgerService) ResetAll(ctx context.Context) error {
	_, err := mutate(ctx, s, log.OpReset, func(st *ledger.Store) (struct{}, error) {
		st.ResetAll()
		return struct{}{}, nil
	})
	return err
}

// FactoryReset restores the first-run ledger and drops the local cache
// before writing the fresh snapshot.
func (s *LedgerService) FactoryReset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current().FactoryReset()
	s.views.Purge()

	var errs []error
	if err := s.saver.ClearLocal(ctx); err != nil {
		s.logger.WarnContext(ctx, "Local cache not cleared", log.FieldError, err.Error())
		errs = append(errs, err)
	}
	if err := s.persist(ctx, log.OpReset); err != nil {
		errs = append(errs, err)
	}
	s.logger.InfoContext(ctx, "Factory reset completed")
	return errors.Join(errs...)
}

// cached returns the view stored under key for the current version and
// day, computing it on a miss.
func cached[T any](s *LedgerService, view string, compute func(*ledger.Store) T) T {
	st := s.current()
	key := cache.ViewKey(view, st.Version(), st.Today().String())
	if v, ok := s.views.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	v := compute(st)
	s.views.Set(key, v)
	return v
}

func viewName(view string, id int64) string {
	return view + "/" + strconv.FormatInt(id, 10)
}

// ViewCacheStats exposes hit and miss counts of the derived-view cache.
func (s *LedgerService) ViewCacheStats() (hits, misses int64) { return s.views.Stats() }

func (s *LedgerService) Version() int64 { return s.current().Version() }

func (s *LedgerService) Today() core.Date { return s.current().Today() }

func (s *LedgerService) Location() *time.Location { return s.current().Location() }

func (s *LedgerService) Snapshot() core.Snapshot { return s.current().Snapshot() }

func (s *LedgerService) Profiles() []core.Profile { return s.current().Profiles() }

func (s *LedgerService) Profile(id int64) (core.Profile, error) { return s.current().Profile(id) }

func (s *LedgerService) ActiveProfile() core.Profile { return s.current().ActiveProfile() }

func (s *LedgerService) Categories() []string { return s.current().Categories() }

func (s *LedgerService) Necessities() []string { return s.current().Necessities() }

func (s *LedgerService) Transaction(id int64) (core.Transaction, error) {
	return s.current().Transaction(id)
}

// Close releases the publisher when it holds a connection.
func (s *LedgerService) Close() error {
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close publisher: %w", err)
		}
	}
	return nil
}

// Package cache holds computed ledger views keyed by snapshot version so
// repeated dashboard and insight reads skip recomputation.
package cache

import (
	"context"
	"fmt"
	"time"

	"finanzas/internal/log"
)

// Cache is a keyed store of computed values.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// ViewKey builds the key for a view computed at a snapshot version on a
// given day. Both parts matter: a new day shifts the windows even when
// the ledger has not changed.
func ViewKey(view string, version int64, day string) string {
	return fmt.Sprintf("%s:%d:%s", view, version, day)
}

// Manager evicts expired entries from registered caches on a timer.
type Manager struct {
	caches []Cleaner
	logger *log.Logger
}

func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{logger: logger.WithComponent(log.ComponentCache)}
}

func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// CleanAll runs one eviction pass and returns how many entries were dropped.
func (m *Manager) CleanAll() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Run cleans every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				m.logger.DebugContext(ctx, "Expired view cache entries removed", "count", n)
			}
		}
	}
}

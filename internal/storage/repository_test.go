package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"finanzas/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "finanzas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	repo.now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestLoadEmpty(t *testing.T) {
	repo := newTestRepo(t)
	_, ok, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected no snapshot on first run")
	}
	st, err := repo.SyncState(context.Background())
	if err != nil || st.Revision != 0 || st.Pending() {
		t.Fatalf("SyncState = %+v, %v", st, err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	snap := core.DefaultSnapshot()
	snap.Transactions = []core.Transaction{{
		ID:          1741946400000,
		Date:        core.NewDate(2025, 3, 14),
		Profile:     "Daniel",
		Kind:        core.TransactionExpense,
		Description: "Café, pan",
		Amount:      3500,
		Category:    core.CategoryFood,
		Necessity:   core.NecessityHigh,
		Period:      "3-2025",
	}}
	if err := repo.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := repo.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].Description != "Café, pan" {
		t.Fatalf("transactions = %+v", got.Transactions)
	}
	if !got.Transactions[0].Date.Equal(core.NewDate(2025, 3, 14)) {
		t.Errorf("date = %s", got.Transactions[0].Date)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt not stamped")
	}
	if len(got.Profiles) != 2 || got.ActiveProfileID != 1 {
		t.Errorf("profiles = %+v", got.Profiles)
	}
}

func TestSyncBookkeeping(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for i := 0; i < 3; i++ {
		if err := repo.Save(ctx, core.DefaultSnapshot()); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	st, err := repo.SyncState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Revision != 3 || !st.Pending() {
		t.Fatalf("state = %+v", st)
	}

	if err := repo.MarkSynced(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkSynced(ctx, 2); err != nil {
		t.Fatal(err)
	}
	st, _ = repo.SyncState(ctx)
	if st.SyncedRevision != 3 || st.Pending() || st.SyncedAt.IsZero() {
		t.Fatalf("state after sync = %+v", st)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Save(ctx, core.DefaultSnapshot()); err != nil {
		t.Fatal(err)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := repo.Load(ctx); ok {
		t.Fatal("snapshot still present after Clear")
	}
	st, err := repo.SyncState(ctx)
	if err != nil || st.Revision != 1 {
		t.Fatalf("revision reset by Clear: %+v, %v", st, err)
	}

	if err := repo.Save(ctx, core.DefaultSnapshot()); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := repo.Load(ctx); !ok || err != nil {
		t.Fatalf("Load after Clear+Save = %v, %v", ok, err)
	}
}

func TestLateMarkSyncedAfterClear(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for i := 0; i < 3; i++ {
		if err := repo.Save(ctx, core.DefaultSnapshot()); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	// A sync reads revision 3 and is still pushing while the cache is
	// cleared and saved again.
	st, err := repo.SyncState(ctx)
	if err != nil || st.Revision != 3 {
		t.Fatalf("state = %+v, %v", st, err)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, core.DefaultSnapshot()); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkSynced(ctx, st.Revision); err != nil {
		t.Fatal(err)
	}

	st, err = repo.SyncState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Revision <= st.SyncedRevision || !st.Pending() {
		t.Fatalf("newer save hidden by a late marker: %+v", st)
	}
}

func TestMarkSyncedNeverPassesRevision(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Save(ctx, core.DefaultSnapshot()); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkSynced(ctx, 5); err != nil {
		t.Fatal(err)
	}
	st, _ := repo.SyncState(ctx)
	if st.SyncedRevision != 0 {
		t.Fatalf("SyncedRevision = %d beyond revision %d", st.SyncedRevision, st.Revision)
	}
	if err := repo.Save(ctx, core.DefaultSnapshot()); err != nil {
		t.Fatal(err)
	}
	if st, _ := repo.SyncState(ctx); !st.Pending() {
		t.Fatalf("state = %+v, want pending", st)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finanzas.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}

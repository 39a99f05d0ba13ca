package memory

import (
	"context"
	"errors"
	"testing"

	"finanzas/internal/core"
)

func TestMemoryStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, err := s.Load(ctx); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	snap := core.DefaultSnapshot()
	snap.Categories = append(snap.Categories, "Mascotas")
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}
	snap.Categories[0] = "mutated"

	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Categories[0] != core.CategoryFood || got.Categories[len(got.Categories)-1] != "Mascotas" {
		t.Fatalf("categories = %v", got.Categories)
	}
	if s.Saves() != 1 {
		t.Fatalf("saves = %d", s.Saves())
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Fatal("snapshot present after Clear")
	}
}

func TestMemoryStoreForcedFailure(t *testing.T) {
	ctx := context.Background()
	s := NewWith(core.DefaultSnapshot())
	boom := errors.New("network down")

	s.Fail(boom)
	if err := s.Save(ctx, core.DefaultSnapshot()); !errors.Is(err, boom) {
		t.Fatalf("Save err = %v", err)
	}
	if _, _, err := s.Load(ctx); !errors.Is(err, boom) {
		t.Fatalf("Load err = %v", err)
	}

	s.Fail(nil)
	if _, ok, err := s.Load(ctx); !ok || err != nil {
		t.Fatalf("healed Load: ok=%v err=%v", ok, err)
	}
}

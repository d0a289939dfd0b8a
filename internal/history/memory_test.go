package history

import (
	"context"
	"testing"
)

func TestAppendAllocatesMonotonicIDs(t *testing.T) {
	j := NewMemory()
	ctx := context.Background()

	e1, err := j.Append(ctx, "m1", "shuffle_deck", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e2, err := j.Append(ctx, "m1", "init_gold", map[string]int{"gold": 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e1.ID != 0 || e2.ID != 1 {
		t.Fatalf("expected ids 0,1 got %d,%d", e1.ID, e2.ID)
	}
}

func TestAppendIsolatesMatches(t *testing.T) {
	j := NewMemory()
	ctx := context.Background()

	a, _ := j.Append(ctx, "room-a", "shuffle_deck", nil)
	b, _ := j.Append(ctx, "room-b", "shuffle_deck", nil)
	if a.ID != 0 || b.ID != 0 {
		t.Fatalf("expected independent per-match counters, got %d and %d", a.ID, b.ID)
	}
}

func TestLoadReturnsEventsInIDOrder(t *testing.T) {
	j := NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := j.Append(ctx, "m1", "tick", i); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	events, err := j.Load(ctx, "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	for i, e := range events {
		if e.ID != uint32(i) {
			t.Fatalf("expected event %d to have id %d, got %d", i, i, e.ID)
		}
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewStore[string]()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	if err := store.Add(ctx, "s1", "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Add(ctx, "s1", "again"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "first" {
		t.Errorf("expected first, got %s", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	removed, err := store.Remove(ctx, "s1")
	if err != nil || removed != "first" {
		t.Errorf("expected to remove first, got %q, %v", removed, err)
	}
	if _, err := store.Remove(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
}

func TestStore_Limit(t *testing.T) {
	ctx := context.Background()
	store := NewStore[int](WithMaxItems(2))

	_ = store.Add(ctx, "a", 1)
	_ = store.Add(ctx, "b", 2)
	if err := store.Add(ctx, "c", 3); !errors.Is(err, ErrLimitReached) {
		t.Errorf("expected ErrLimitReached, got %v", err)
	}

	_, _ = store.Remove(ctx, "a")
	if err := store.Add(ctx, "c", 3); err != nil {
		t.Errorf("expected room after remove, got %v", err)
	}

	unbounded := NewStore[int](WithMaxItems(0))
	for i := 0; i < 2000; i++ {
		if err := unbounded.Add(ctx, fmt.Sprintf("s%d", i), i); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestStore_ListOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore[int]()
	for i, id := range []string{"z", "a", "m"} {
		_ = store.Add(ctx, id, i)
	}

	list := store.List(ctx)
	if len(list) != 3 || list[0] != 0 || list[1] != 1 || list[2] != 2 {
		t.Errorf("expected insertion order [0 1 2], got %v", list)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore[int]()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			_ = store.Add(ctx, id, i)
			_, _ = store.Get(ctx, id)
			_ = store.List(ctx)
		}(i)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 50 {
		t.Errorf("expected count 50, got %d", count)
	}
}

// Package repository is the in-memory registry of live sessions.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Default store configuration constants.
const (
	defaultMaxItems = 1000
)

// Store keeps items by id. It is safe for concurrent use.
type Store[T any] struct {
	mu       sync.RWMutex
	items    map[string]T
	order    map[string]uint64
	seq      uint64
	maxItems int
}

// NewStore constructs a store with configuration options.
func NewStore[T any](opts ...Option) *Store[T] {
	s := settings{maxItems: defaultMaxItems}
	for _, opt := range opts {
		opt(&s)
	}
	return &Store[T]{
		items:    make(map[string]T),
		order:    make(map[string]uint64),
		maxItems: s.maxItems,
	}
}

// Add stores item under id.
// Returns ErrAlreadyExists for a taken id and ErrLimitReached when full.
func (s *Store[T]) Add(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; ok {
		return fmt.Errorf("%s: %w", id, ErrAlreadyExists)
	}
	if s.maxItems > 0 && len(s.items) >= s.maxItems {
		return fmt.Errorf("%d items: %w", len(s.items), ErrLimitReached)
	}
	s.seq++
	s.items[id] = item
	s.order[id] = s.seq
	return nil
}

// Get returns the item stored under id, or ErrNotFound.
func (s *Store[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return item, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return item, nil
}

// Remove deletes and returns the item stored under id, or ErrNotFound.
func (s *Store[T]) Remove(_ context.Context, id string) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return item, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	delete(s.items, id)
	delete(s.order, id)
	return item, nil
}

// List returns every item in insertion order.
func (s *Store[T]) List(_ context.Context) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.order[ids[i]] < s.order[ids[j]] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.items[id])
	}
	return out
}

// Count returns the number of stored items.
func (s *Store[T]) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

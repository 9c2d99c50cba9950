// Package dedupe makes retried commands idempotent: the first call with a
// key runs, later calls with the same key replay its outcome.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// entry is one recorded key. done is closed once the outcome is known.
type entry[V any] struct {
	key   string
	value V
	done  chan struct{}
	elem  *list.Element
}

// Deduper remembers successful outcomes by key, bounded by insertion order.
// Failed calls are unrecorded so the client can retry with the same key.
type Deduper[V any] struct {
	mu      sync.Mutex
	seen    map[string]*entry[V]
	order   *list.List // front is the most recently added key
	maxSize int        // 0 or negative means unbounded
	size    atomic.Int64
}

// New creates a deduper with configuration options.
func New[V any](opts ...Option) *Deduper[V] {
	s := settings{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(&s)
	}
	return &Deduper[V]{
		seen:    make(map[string]*entry[V]),
		order:   list.New(),
		maxSize: s.maxSize,
	}
}

// Do runs fn once per key. It returns the value, whether it was replayed
// from an earlier call, and fn's error. Concurrent calls with a key that
// is still running wait for it. An empty key always runs fn.
func (d *Deduper[V]) Do(ctx context.Context, key string, fn func() (V, error)) (V, bool, error) {
	if key == "" {
		v, err := fn()
		return v, false, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		e, seen := d.seenAndRecord(key)
		if !seen {
			return d.run(e, fn)
		}

		select {
		case <-e.done:
		case <-ctx.Done():
			var zero V
			return zero, false, ctx.Err()
		}

		d.mu.Lock()
		current, ok := d.seen[key]
		d.mu.Unlock()
		if ok && current == e {
			return e.value, true, nil
		}
		// The earlier call failed and was unrecorded; try to claim the key.
	}
}

func (d *Deduper[V]) run(e *entry[V], fn func() (V, error)) (V, bool, error) {
	v, err := fn()
	if err != nil {
		d.Unrecord(e.key)
		close(e.done)
		return v, false, err
	}
	e.value = v
	close(e.done)
	return v, false, nil
}

// seenAndRecord returns the entry for key, creating it when new.
func (d *Deduper[V]) seenAndRecord(key string) (*entry[V], bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.seen[key]; ok {
		return e, true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	e := &entry[V]{key: key, done: make(chan struct{})}
	e.elem = d.order.PushFront(e)
	d.seen[key] = e
	d.size.Add(1)
	return e, false
}

// Unrecord forgets key so it can be retried.
func (d *Deduper[V]) Unrecord(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remove(key)
}

// remove must be called with d.mu held.
func (d *Deduper[V]) remove(key string) {
	e, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	d.order.Remove(e.elem)
	d.size.Add(-1)
}

// evictOldest must be called with d.mu held.
func (d *Deduper[V]) evictOldest() {
	if back := d.order.Back(); back != nil {
		d.remove(back.Value.(*entry[V]).key)
	}
}

// Size returns the number of recorded keys.
func (d *Deduper[V]) Size() int64 {
	return d.size.Load()
}

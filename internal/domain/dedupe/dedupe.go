// Package dedupe tracks submission IDs so each submission is ingested once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 500_000

// Deduper records seen submission IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it if
	// not. The check and the record happen atomically.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission rejected downstream (for example
	// by a full queue) can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps IDs in insertion order. When bounded it evicts the
// oldest ID first; when unbounded it never evicts.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int // <= 0 means unbounded
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		d.evictOldest()
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Front()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(string))
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(d.order.Len())
}

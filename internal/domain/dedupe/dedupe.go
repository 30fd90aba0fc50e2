// Package dedupe tracks seen event IDs so each production event contributes
// at most one training label, even when log files overlap or a session was
// archived into more than one place.
package dedupe

import (
	"sync"
)

// Deduper records seen event IDs.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(id string) bool

	// Size returns the number of recorded IDs.
	Size() int64
}

// inMemoryDeduper implements Deduper with a mutex-guarded set. Bounded mode
// evicts the oldest recorded IDs once the cap is reached, which is enough
// for a single batch scan where duplicates cluster close together.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string
	maxSize int
}

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps the number of IDs kept in memory. Zero or negative means
// unbounded, the default for batch scans.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// NewInMemory creates an in-memory deduper with configuration options.
func NewInMemory(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	if d.maxSize > 0 {
		if len(d.order) >= d.maxSize {
			oldest := d.order[0]
			d.order = d.order[1:]
			delete(d.seen, oldest)
		}
		d.order = append(d.order, id)
	}
	d.seen[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

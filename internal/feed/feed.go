// Package feed keeps the bounded, newest-first sequence of deployment records
// shown by the dashboard and the simulator that appends synthetic records to it.
package feed

import (
	"errors"
	"sync"

	"deployhub/internal/deployment"
)

// DefaultCapacity is the number of most recent records the dashboard shows
const DefaultCapacity = 10

// ErrInvalidCapacity is returned for a capacity below one
var ErrInvalidCapacity = errors.New("feed capacity must be at least 1")

// Feed is a bounded newest-first record sequence, safe for concurrent use
type Feed struct {
	mu       sync.RWMutex
	capacity int
	records  []deployment.Record
}

// New creates an empty feed holding at most capacity records
func New(capacity int) (*Feed, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	return &Feed{capacity: capacity}, nil
}

// Capacity returns the maximum number of records kept
func (f *Feed) Capacity() int {
	return f.capacity
}

// Prepend pushes r to the front and drops the oldest records beyond capacity.
// The resulting length is min(previous length + 1, capacity).
func (f *Feed) Prepend(r deployment.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records = prepend(f.records, r, f.capacity)
}

// Reset replaces the contents with records (assumed newest first), keeping
// at most capacity of them.
func (f *Feed) Reset(records []deployment.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := min(len(records), f.capacity)
	f.records = make([]deployment.Record, n)
	copy(f.records, records[:n])
}

// Snapshot returns a copy of the current records, newest first
func (f *Feed) Snapshot() []deployment.Record {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]deployment.Record, len(f.records))
	copy(out, f.records)
	return out
}

// Get returns the record with the given id
func (f *Feed) Get(id int64) (deployment.Record, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, r := range f.records {
		if r.ID == id {
			return r, true
		}
	}
	return deployment.Record{}, false
}

// Len returns the number of records held
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.records)
}

// prepend builds a new slice so snapshots handed out earlier never change
func prepend(records []deployment.Record, r deployment.Record, capacity int) []deployment.Record {
	n := min(len(records)+1, capacity)
	out := make([]deployment.Record, n)
	out[0] = r
	copy(out[1:], records)
	return out
}

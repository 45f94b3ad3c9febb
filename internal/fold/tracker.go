package fold

import (
	"slices"
	"sync"
)

// Tracker remembers, per document, which JSDoc blocks the user currently
// has in view. Blocks in view are treated as deliberately expanded and are
// skipped by fold passes.
//
// Entries are created by the first Update for a document, replaced wholesale
// by every later Update and removed by Forget. Nothing outlives the process.
type Tracker struct {
	mu       sync.RWMutex
	expanded map[string][]LineRange
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		expanded: make(map[string][]LineRange),
	}
}

// Update records the blocks intersecting any visible range as the expansion
// set of key, replacing the previous set. It returns the new set.
func (t *Tracker) Update(key string, blocks, visible []LineRange) []LineRange {
	set := make([]LineRange, 0, len(blocks))
	for _, b := range blocks {
		for _, v := range visible {
			if b.Intersects(v) {
				set = append(set, b)
				break
			}
		}
	}

	t.mu.Lock()
	t.expanded[key] = set
	t.mu.Unlock()

	return slices.Clone(set)
}

// Expanded returns a copy of the expansion set of key, or nil when the
// document has no entry.
func (t *Tracker) Expanded(key string) []LineRange {
	t.mu.RLock()
	defer t.mu.RUnlock()

	set, ok := t.expanded[key]
	if !ok {
		return nil
	}
	return slices.Clone(set)
}

// Has reports whether key has an entry.
func (t *Tracker) Has(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.expanded[key]
	return ok
}

// Forget deletes the entry for key. It reports whether one existed.
func (t *Tracker) Forget(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.expanded[key]
	delete(t.expanded, key)
	return ok
}

// Len returns the number of tracked documents.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.expanded)
}

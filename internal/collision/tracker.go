package collision

import (
	"fmt"

	"github.com/arloliu/arps/errs"
)

// Tracker assigns dense indexes to well identifiers while grouping tabular
// rows, and detects xxHash64 collisions between distinct identifiers.
type Tracker struct {
	indexes map[uint64]int    // Key → position in ids
	names   map[uint64]string // Key → identifier for collision detection
	ids     []string          // Identifiers in first-seen order
}

// NewTracker creates a new collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		indexes: make(map[uint64]int),
		names:   make(map[uint64]string),
		ids:     make([]string, 0),
	}
}

// Track records a well identifier with its key and returns its index in
// first-seen order. Tracking the same identifier again returns the existing
// index.
//
// Returns an error if:
//   - The identifier is empty (ErrInvalidWellID)
//   - A different identifier already owns the key (ErrHashCollision)
func (t *Tracker) Track(id string, key uint64) (int, error) {
	if id == "" {
		return -1, errs.ErrInvalidWellID
	}

	if existing, ok := t.names[key]; ok {
		if existing != id {
			return -1, fmt.Errorf("%w: %q and %q share key %#016x", errs.ErrHashCollision, existing, id, key)
		}

		return t.indexes[key], nil
	}

	idx := len(t.ids)
	t.names[key] = id
	t.indexes[key] = idx
	t.ids = append(t.ids, id)

	return idx, nil
}

// Claim records a well identifier that must not have been tracked before.
// It is used where each well is expected exactly once, such as a batch run.
func (t *Tracker) Claim(id string, key uint64) (int, error) {
	if existing, ok := t.names[key]; ok && existing == id {
		return -1, fmt.Errorf("%w: %q", errs.ErrDuplicateWell, id)
	}

	return t.Track(id, key)
}

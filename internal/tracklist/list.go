// Package tracklist holds an ordered sequence of track ids backed by
// the catalog, with a bounded cache of materialized records and a
// scoped Editor for mutation.
package tracklist

import (
	"sync"

	"github.com/llehouerou/chorus/internal/catalog"
	"github.com/llehouerou/chorus/internal/track"
)

const cacheCapacity = 50

// List is an ordered vector of track ids. Reads and whole-list
// replacement (SetIDs, CopyFrom, SwapWith, Clear) take the list lock
// briefly; positional edits go through an Editor, which holds the lock
// for its lifetime.
type List struct {
	mu    sync.Mutex
	cat   *catalog.Catalog
	ids   []int64
	cache *recordCache
}

// New creates an empty list over the catalog.
func New(cat *catalog.Catalog) *List {
	return &List{
		cat:   cat,
		cache: newRecordCache(cacheCapacity),
	}
}

// Count returns the number of tracks.
func (l *List) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}

// GetID returns the track id at index, or 0 when out of bounds.
func (l *List) GetID(index int) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.ids) {
		return 0
	}
	return l.ids[index]
}

// Get materializes the record at index, loading from the catalog on a
// cache miss. Returns nil when out of bounds or the row is gone.
func (l *List) Get(index int) *track.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.ids) {
		return nil
	}
	id := l.ids[index]
	if rec := l.cache.get(id); rec != nil {
		return rec
	}
	rec, err := track.Load(l.cat, id)
	if err != nil {
		return nil
	}
	l.cache.put(id, rec)
	return rec
}

// IndexOf returns the position of the id, or -1.
func (l *List) IndexOf(id int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, v := range l.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// IDs returns a copy of the id vector.
func (l *List) IDs() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int64, len(l.ids))
	copy(out, l.ids)
	return out
}

// SetIDs replaces the contents of the list.
func (l *List) SetIDs(ids []int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = make([]int64, len(ids))
	copy(l.ids, ids)
	l.cache.clear()
}

// CopyFrom replaces this list's contents with a copy of other's.
func (l *List) CopyFrom(other *List) {
	ids := other.IDs()
	l.SetIDs(ids)
}

// SwapWith exchanges the contents of the two lists. Callers own both
// lists; the playback service invokes this from its message goroutine
// only.
func (l *List) SwapWith(other *List) {
	if l == other {
		return
	}
	l.mu.Lock()
	other.mu.Lock()
	defer other.mu.Unlock()
	defer l.mu.Unlock()

	l.ids, other.ids = other.ids, l.ids
	l.cache.clear()
	other.cache.clear()
}

// Clear empties the list.
func (l *List) Clear() {
	l.SetIDs(nil)
}

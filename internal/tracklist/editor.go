package tracklist

import (
	"math/rand"
)

// Index sentinels shared with the playback service.
const (
	// NoIndex means no position.
	NoIndex = -1
	// StartOver means the playing item was deleted and playback should
	// restart from the head on the next advance.
	StartOver = -2
)

// Editor grants exclusive mutation of a List. It holds the list lock
// for its lifetime; Close releases the lock and reports what the
// mutation did to the playing position so the owner can recompute its
// prefetch.
type Editor struct {
	list      *List
	playIndex int
	moved     bool
	reload    bool
	closed    bool
}

// Edit locks the list and returns an editor tracking playIndex (the
// owner's now-playing position, or NoIndex).
func (l *List) Edit(playIndex int) *Editor {
	l.mu.Lock()
	return &Editor{list: l, playIndex: playIndex}
}

// Result describes the effect of an edit session.
type Result struct {
	// PlayIndex is the adjusted playing position: moved when items
	// shifted, StartOver when the playing item was deleted.
	PlayIndex int
	// Moved is true when PlayIndex differs from the value at Edit time.
	Moved bool
	// ReloadNext is true when the item after the playing position was
	// touched, invalidating a prefetched next track.
	ReloadNext bool
}

// Close releases the list lock. Effects become visible atomically.
func (e *Editor) Close() Result {
	if !e.closed {
		e.closed = true
		e.list.cache.clear()
		e.list.mu.Unlock()
	}
	return Result{PlayIndex: e.playIndex, Moved: e.moved, ReloadNext: e.reload}
}

// Count returns the current length.
func (e *Editor) Count() int {
	return len(e.list.ids)
}

// Insert places id at the given position.
func (e *Editor) Insert(id int64, at int) bool {
	ids := e.list.ids
	if at < 0 || at > len(ids) {
		return false
	}
	e.list.ids = append(ids[:at], append([]int64{id}, ids[at:]...)...)

	if e.playIndex >= at {
		e.playIndex++
		e.moved = true
	} else if at == e.playIndex+1 {
		e.reload = true
	}
	return true
}

// Delete removes the item at the given position. Deleting the playing
// item sets the play index to StartOver.
func (e *Editor) Delete(at int) bool {
	ids := e.list.ids
	if at < 0 || at >= len(ids) {
		return false
	}
	e.list.ids = append(ids[:at], ids[at+1:]...)

	switch {
	case at == e.playIndex:
		e.playIndex = StartOver
		e.moved = true
	case e.playIndex > at && e.playIndex >= 0:
		e.playIndex--
		e.moved = true
	case at == e.playIndex+1:
		e.reload = true
	}
	return true
}

// Move relocates the item at from to position to.
func (e *Editor) Move(from, to int) bool {
	ids := e.list.ids
	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
		return false
	}
	if from == to {
		return true
	}

	id := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	e.list.ids = append(ids[:to], append([]int64{id}, ids[to:]...)...)

	e.trackPositionAfterMove(from, to)
	return true
}

func (e *Editor) trackPositionAfterMove(from, to int) {
	switch {
	case e.playIndex == from:
		e.playIndex = to
		e.moved = true
	case e.playIndex > from && e.playIndex <= to:
		e.playIndex--
		e.moved = true
	case e.playIndex < from && e.playIndex >= to:
		e.playIndex++
		e.moved = true
	case to == e.playIndex+1 || from == e.playIndex+1:
		e.reload = true
	}
}

// Swap exchanges the items at positions a and b.
func (e *Editor) Swap(a, b int) bool {
	ids := e.list.ids
	if a < 0 || a >= len(ids) || b < 0 || b >= len(ids) {
		return false
	}
	ids[a], ids[b] = ids[b], ids[a]

	switch e.playIndex {
	case a:
		e.playIndex = b
		e.moved = true
	case b:
		e.playIndex = a
		e.moved = true
	default:
		if a == e.playIndex+1 || b == e.playIndex+1 {
			e.reload = true
		}
	}
	return true
}

// Clear removes all items.
func (e *Editor) Clear() {
	e.list.ids = nil
	if e.playIndex >= 0 {
		e.playIndex = StartOver
		e.moved = true
	}
}

// Shuffle randomizes the order in place. The playing item keeps its
// identity: the play index follows it to its new position.
func (e *Editor) Shuffle() {
	ids := e.list.ids
	var playingID int64
	if e.playIndex >= 0 && e.playIndex < len(ids) {
		playingID = ids[e.playIndex]
	}

	rand.Shuffle(len(ids), func(a, b int) {
		ids[a], ids[b] = ids[b], ids[a]
	})

	if playingID != 0 {
		for i, id := range ids {
			if id == playingID {
				if i != e.playIndex {
					e.playIndex = i
					e.moved = true
				}
				break
			}
		}
	}
	e.reload = true
}

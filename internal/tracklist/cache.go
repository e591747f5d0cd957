package tracklist

import (
	"container/list"

	"github.com/llehouerou/chorus/internal/track"
)

// recordCache is a bounded LRU of materialized track records keyed by
// track id.
type recordCache struct {
	capacity int
	order    *list.List
	entries  map[int64]*list.Element
}

type cacheEntry struct {
	id  int64
	rec *track.Record
}

func newRecordCache(capacity int) *recordCache {
	return &recordCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[int64]*list.Element),
	}
}

func (c *recordCache) get(id int64) *track.Record {
	el, ok := c.entries[id]
	if !ok {
		return nil
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).rec
}

func (c *recordCache) put(id int64, rec *track.Record) {
	if el, ok := c.entries[id]; ok {
		el.Value.(*cacheEntry).rec = rec
		c.order.MoveToFront(el)
		return
	}
	c.entries[id] = c.order.PushFront(&cacheEntry{id: id, rec: rec})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).id)
	}
}

func (c *recordCache) clear() {
	c.order.Init()
	c.entries = make(map[int64]*list.Element)
}

package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Entry is one cached GET response.
type Entry struct {
	Body        []byte
	Status      int
	ContentType string
	StoredAt    time.Time
}

type item struct {
	key     string
	entry   Entry
	expires time.Time
	elem    *list.Element
}

// ResponseCache is a bounded TTL cache for GET responses keyed by request
// URL. When capacity is exceeded the least recently used entry is dropped.
type ResponseCache struct {
	capacity int
	now      func() time.Time

	mu    sync.Mutex
	items map[string]*item
	lru   *list.List // front = most recently used
}

// New returns a ResponseCache holding at most capacity entries.
func New(capacity int) *ResponseCache {
	if capacity <= 0 {
		capacity = 512
	}
	return &ResponseCache{
		capacity: capacity,
		now:      time.Now,
		items:    make(map[string]*item),
		lru:      list.New(),
	}
}

// Get returns the cached entry and its age when present and unexpired.
func (c *ResponseCache) Get(key string) (Entry, time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return Entry{}, 0, false
	}
	now := c.now()
	if !now.Before(it.expires) {
		c.removeLocked(it)
		return Entry{}, 0, false
	}
	c.lru.MoveToFront(it.elem)
	return it.entry, now.Sub(it.entry.StoredAt), true
}

// Set stores an entry under key for the given TTL.
func (c *ResponseCache) Set(key string, entry Entry, ttl time.Duration) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	now := c.now()
	entry.StoredAt = now

	c.mu.Lock()
	defer c.mu.Unlock()

	if it, ok := c.items[key]; ok {
		it.entry = entry
		it.expires = now.Add(ttl)
		c.lru.MoveToFront(it.elem)
		return
	}

	it := &item{key: key, entry: entry, expires: now.Add(ttl)}
	it.elem = c.lru.PushFront(it)
	c.items[key] = it

	for len(c.items) > c.capacity {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*item))
	}
}

// Invalidate drops every entry whose key contains pattern. Mutating
// handlers call this for the routes their write affects.
func (c *ResponseCache) Invalidate(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, it := range c.items {
		if strings.Contains(key, pattern) {
			c.removeLocked(it)
		}
	}
}

// Clear drops everything.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*item)
	c.lru.Init()
}

// Prune drops expired entries; the cron job calls this so idle entries do
// not sit around until their key is next requested.
func (c *ResponseCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for _, it := range c.items {
		if !now.Before(it.expires) {
			c.removeLocked(it)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *ResponseCache) removeLocked(it *item) {
	delete(c.items, it.key)
	c.lru.Remove(it.elem)
}

// WithNowFunc overrides the time source for tests.
func (c *ResponseCache) WithNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

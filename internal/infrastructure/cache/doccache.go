package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/kirillkom/document-qa/internal/core/ports"
)

// DocumentCache keeps recently built indexes keyed by document URL so
// repeated runs against the same URL skip re-ingestion. Entries expire
// after TTL; when full, the least recently used entry is evicted.
type DocumentCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	onEvict    func(*ports.IndexedDocument)

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
}

type entry struct {
	url       string
	doc       *ports.IndexedDocument
	expiresAt time.Time
}

func New(ttl time.Duration, maxEntries int) *DocumentCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 16
	}
	return &DocumentCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

// OnEvict registers a hook invoked with every document that leaves the
// cache: TTL expiry, LRU eviction, or replacement. The hook runs
// outside the cache lock and must not call back into the cache.
func (c *DocumentCache) OnEvict(fn func(*ports.IndexedDocument)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

func (c *DocumentCache) Get(url string) (*ports.IndexedDocument, bool) {
	c.mu.Lock()

	element, ok := c.entries[url]
	if !ok {
		c.mu.Unlock()
		return nil, false
	}

	stored := element.Value.(*entry)
	if c.now().After(stored.expiresAt) {
		c.remove(element)
		hook := c.onEvict
		c.mu.Unlock()
		c.notify(hook, stored.doc)
		return nil, false
	}

	c.order.MoveToFront(element)
	doc := stored.doc
	c.mu.Unlock()
	return doc, true
}

func (c *DocumentCache) Put(url string, doc *ports.IndexedDocument) {
	var evicted []*ports.IndexedDocument

	c.mu.Lock()
	if element, ok := c.entries[url]; ok {
		stored := element.Value.(*entry)
		if stored.doc != doc {
			evicted = append(evicted, stored.doc)
		}
		stored.doc = doc
		stored.expiresAt = c.now().Add(c.ttl)
		c.order.MoveToFront(element)
	} else {
		for c.order.Len() >= c.maxEntries {
			back := c.order.Back()
			evicted = append(evicted, back.Value.(*entry).doc)
			c.remove(back)
		}
		c.entries[url] = c.order.PushFront(&entry{
			url:       url,
			doc:       doc,
			expiresAt: c.now().Add(c.ttl),
		})
	}
	hook := c.onEvict
	c.mu.Unlock()

	for _, old := range evicted {
		c.notify(hook, old)
	}
}

func (c *DocumentCache) remove(element *list.Element) {
	if element == nil {
		return
	}
	stored := element.Value.(*entry)
	delete(c.entries, stored.url)
	c.order.Remove(element)
}

func (c *DocumentCache) notify(hook func(*ports.IndexedDocument), doc *ports.IndexedDocument) {
	if hook == nil || doc == nil {
		return
	}
	hook(doc)
}

package cache

import (
	"testing"
	"time"

	"github.com/kirillkom/document-qa/internal/core/domain"
	"github.com/kirillkom/document-qa/internal/core/ports"
)

func docFixture(id string) *ports.IndexedDocument {
	return &ports.IndexedDocument{Document: &domain.Document{ID: id}}
}

func TestGetReturnsStoredDocument(t *testing.T) {
	c := New(time.Minute, 4)
	c.Put("https://example.com/a.pdf", docFixture("a"))

	got, ok := c.Get("https://example.com/a.pdf")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got.Document.ID != "a" {
		t.Fatalf("expected document a, got %q", got.Document.ID)
	}

	if _, ok := c.Get("https://example.com/missing.pdf"); ok {
		t.Fatalf("expected miss for unknown url")
	}
}

func TestEntriesExpireAfterTTL(t *testing.T) {
	c := New(time.Minute, 4)
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.Put("https://example.com/a.pdf", docFixture("a"))

	current = current.Add(30 * time.Second)
	if _, ok := c.Get("https://example.com/a.pdf"); !ok {
		t.Fatalf("entry must survive within ttl")
	}

	current = current.Add(31 * time.Second)
	if _, ok := c.Get("https://example.com/a.pdf"); ok {
		t.Fatalf("entry must expire after ttl")
	}
	if _, ok := c.entries["https://example.com/a.pdf"]; ok {
		t.Fatalf("expired entry must be removed")
	}
}

func TestPutEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(time.Minute, 2)
	c.Put("url-a", docFixture("a"))
	c.Put("url-b", docFixture("b"))

	// Touch a so b becomes the eviction candidate.
	if _, ok := c.Get("url-a"); !ok {
		t.Fatalf("expected hit for a")
	}

	c.Put("url-c", docFixture("c"))

	if _, ok := c.Get("url-b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get("url-a"); !ok {
		t.Fatalf("expected a to survive")
	}
	if _, ok := c.Get("url-c"); !ok {
		t.Fatalf("expected c to be present")
	}
}

func TestPutReplacesExistingEntry(t *testing.T) {
	c := New(time.Minute, 2)
	c.Put("url-a", docFixture("old"))
	c.Put("url-a", docFixture("new"))

	got, ok := c.Get("url-a")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.Document.ID != "new" {
		t.Fatalf("expected replacement, got %q", got.Document.ID)
	}
	if c.order.Len() != 1 {
		t.Fatalf("replacement must not grow the cache, len %d", c.order.Len())
	}
}

func TestDefaultsApplied(t *testing.T) {
	c := New(0, 0)
	if c.ttl != 10*time.Minute {
		t.Fatalf("expected default ttl, got %v", c.ttl)
	}
	if c.maxEntries != 16 {
		t.Fatalf("expected default max entries, got %d", c.maxEntries)
	}
}

func TestOnEvictFiresForExpiryEvictionAndReplacement(t *testing.T) {
	c := New(time.Minute, 2)
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	var evicted []string
	c.OnEvict(func(doc *ports.IndexedDocument) {
		evicted = append(evicted, doc.Document.ID)
	})

	c.Put("https://example.com/a.pdf", docFixture("a"))
	c.Put("https://example.com/b.pdf", docFixture("b"))
	if len(evicted) != 0 {
		t.Fatalf("no eviction expected yet, got %v", evicted)
	}

	// Capacity eviction drops the least recently used entry.
	c.Put("https://example.com/c.pdf", docFixture("c"))
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Fatalf("expected eviction of a, got %v", evicted)
	}

	// Replacing a live entry releases the old document.
	c.Put("https://example.com/b.pdf", docFixture("b2"))
	if len(evicted) != 2 || evicted[1] != "b" {
		t.Fatalf("expected eviction of replaced b, got %v", evicted)
	}

	// TTL expiry on lookup releases the document too.
	current = current.Add(2 * time.Minute)
	if _, ok := c.Get("https://example.com/c.pdf"); ok {
		t.Fatalf("entry must expire after ttl")
	}
	if len(evicted) != 3 || evicted[2] != "c" {
		t.Fatalf("expected eviction of expired c, got %v", evicted)
	}
}

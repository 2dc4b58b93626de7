package scan

import (
	"sync"

	"imagedupe/internal/models"
)

// Cache memoizes fingerprint records for one run, keyed by absolute
// path. Writes are serialized and write-once: a path is fingerprinted
// at most once per run, and the first stored record wins so concurrent
// workers always observe the same instance.
type Cache struct {
	mu      sync.Mutex
	records map[string]*models.FileRecord
}

// NewCache creates an empty run-scoped cache.
func NewCache() *Cache {
	return &Cache{records: make(map[string]*models.FileRecord)}
}

// Lookup returns the cached record for path, if any.
func (c *Cache) Lookup(path string) (*models.FileRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[path]
	return rec, ok
}

// Store inserts rec unless a record for the path already exists, and
// returns the record that is authoritative for the path.
func (c *Cache) Store(rec *models.FileRecord) *models.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.records[rec.Path]; ok {
		return existing
	}
	c.records[rec.Path] = rec
	return rec
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

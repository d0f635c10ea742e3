package pyast

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache parses each file at most once, even under concurrent Load calls.
type Cache struct {
	read  func(path string) ([]byte, error)
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	module *Module
	err    error
}

// NewCache returns a Cache that reads file contents with read.
func NewCache(read func(path string) ([]byte, error)) *Cache {
	return &Cache{read: read, entries: make(map[string]cacheEntry)}
}

// Load returns the parsed module at path. Read and parse failures are
// cached like successes.
func (c *Cache) Load(path string) (*Module, error) {
	entry := c.entry(path)
	return entry.module, entry.err
}

func (c *Cache) entry(path string) cacheEntry {
	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()
	if ok {
		return entry
	}

	v, _, _ := c.group.Do(path, func() (interface{}, error) {
		entry := c.load(path)

		c.mu.Lock()
		c.entries[path] = entry
		c.mu.Unlock()
		return entry, nil
	})
	return v.(cacheEntry)
}

func (c *Cache) load(path string) cacheEntry {
	content, err := c.read(path)
	if err != nil {
		return cacheEntry{err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	module, err := Parse(content)
	if err != nil {
		return cacheEntry{err: fmt.Errorf("failed to parse %s: %w", path, err)}
	}
	return cacheEntry{module: module}
}

// Forget drops the cached entry for path.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LoadFunc loads a table from a file path.
type LoadFunc[T any] func(path string) (T, error)

// Cache memoizes loaded tables keyed by absolute path. An entry is reused only
// while the file's modification time and size are unchanged.
type Cache[T any] struct {
	load    LoadFunc[T]
	mu      sync.Mutex
	entries map[string]cacheEntry[T]
}

type cacheEntry[T any] struct {
	modTime time.Time
	size    int64
	value   T
}

// NewCache creates a cache backed by load.
func NewCache[T any](load LoadFunc[T]) *Cache[T] {
	return &Cache[T]{
		load:    load,
		entries: make(map[string]cacheEntry[T]),
	}
}

// Get returns the table for path, loading it when absent or stale. The
// boolean reports a cache hit.
func (c *Cache[T]) Get(path string) (T, bool, error) {
	var zero T
	key, err := filepath.Abs(path)
	if err != nil {
		return zero, false, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(key)
	if err != nil {
		c.Invalidate(key)
		if os.IsNotExist(err) {
			return zero, false, &FileNotFoundError{Candidates: []string{path}}
		}
		return zero, false, fmt.Errorf("stat dataset: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		return e.value, true, nil
	}
	v, err := c.load(path)
	if err != nil {
		delete(c.entries, key)
		return zero, false, err
	}
	c.entries[key] = cacheEntry[T]{modTime: info.ModTime(), size: info.Size(), value: v}
	return v, false, nil
}

// Invalidate drops the entry for path, if any.
func (c *Cache[T]) Invalidate(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry[T])
	c.mu.Unlock()
}

// Len returns the number of cached tables.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

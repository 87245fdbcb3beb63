package mmd2img

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// cacheFileName is the on-disk index inside the cache directory.
const cacheFileName = "mmd2img-cache.json"

// Cache file permissions.
const (
	cacheDirPermissions  = 0o750
	cacheFilePermissions = 0o644
)

// DiagramCache tracks the last rendered content hash per diagram so
// unchanged diagrams can be skipped. The index is a pure optimization:
// a missing or corrupt index only costs redundant re-renders, never
// wrong output, so load errors are treated as an empty cache.
type DiagramCache struct {
	mu      sync.Mutex
	dir     string
	entries map[string]string
}

// OpenCache loads the index from dir, starting empty when the index is
// missing or unreadable.
func OpenCache(dir string) *DiagramCache {
	c := &DiagramCache{dir: dir, entries: make(map[string]string)}

	data, err := os.ReadFile(filepath.Join(dir, cacheFileName))
	if err != nil {
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.entries = make(map[string]string)
	}
	return c
}

// CacheKey builds the composite key identifying one rendered artifact.
func CacheKey(path string, ordinal int, format, theme string) string {
	return fmt.Sprintf("%s:%d:%s:%s", path, ordinal, format, theme)
}

// NeedsUpdate reports whether content differs from the last hash stored
// for key. Unknown keys always need an update.
func (c *DiagramCache) NeedsUpdate(key, content string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key] != contentHash(content)
}

// Update stores the content hash for key and rewrites the index. Call
// only after a successful render: a failed render must leave the entry
// stale so the diagram is retried on the next run.
func (c *DiagramCache) Update(key, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = contentHash(content)

	if err := os.MkdirAll(c.dir, cacheDirPermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, cacheFileName), data, cacheFilePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheWrite, err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *DiagramCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// contentHash returns the hex SHA-256 of the diagram text.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

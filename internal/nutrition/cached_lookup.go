package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CachedLookup wraps a remote Lookuper and memoizes per-label results to a
// file, reducing API calls across process restarts.
type CachedLookup struct {
	realLookup    Lookuper
	cache         map[string]Profile
	cacheFilePath string
	mu            sync.Mutex
}

// NewCachedLookup creates a CachedLookup, loading any existing cache file.
func NewCachedLookup(realLookup Lookuper, cacheFilePath string) (*CachedLookup, error) {
	c := &CachedLookup{
		realLookup:    realLookup,
		cache:         make(map[string]Profile),
		cacheFilePath: cacheFilePath,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	return c, nil
}

// Lookup checks the cache first and falls through to the real provider on a
// miss, memoizing hits. Not-found answers are not cached, so a food added
// to the remote service later can still be picked up.
func (c *CachedLookup) Lookup(ctx context.Context, label string) (Profile, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if profile, ok := c.cache[label]; ok {
		return profile, true, nil
	}

	profile, ok, err := c.realLookup.Lookup(ctx, label)
	if err != nil || !ok {
		return Profile{}, false, err
	}

	c.cache[label] = profile
	return profile, true, nil
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedLookup) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}

	return nil
}

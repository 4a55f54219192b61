package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/portal-labs/portals/internal/fsutil"
)

// DefaultMaxAge is how long a cached registry is used without refetching.
const DefaultMaxAge = time.Hour

// CacheEntry is the on-disk cache: the registry document plus the time it
// was fetched.
type CacheEntry struct {
	Registry
	LastFetched time.Time `json:"lastFetched"`
}

// IsStale reports whether entry must be refetched at now. An entry is fresh
// only while now - LastFetched < maxAge.
func IsStale(entry *CacheEntry, now time.Time, maxAge time.Duration) bool {
	if entry == nil || entry.LastFetched.IsZero() {
		return true
	}
	return now.Sub(entry.LastFetched) >= maxAge
}

// LoadCacheEntry reads and validates the cache file at path.
// Returns nil, nil if the file does not exist.
func LoadCacheEntry(path string) (*CacheEntry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry cache: %w", err)
	}

	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing registry cache: %w", err)
	}

	var stamp struct {
		LastFetched time.Time `json:"lastFetched"`
	}
	if err := json.Unmarshal(data, &stamp); err != nil {
		return nil, fmt.Errorf("parsing registry cache timestamp: %w", err)
	}

	return &CacheEntry{Registry: *reg, LastFetched: stamp.LastFetched}, nil
}

// SaveCacheEntry atomically replaces the cache file at path.
func SaveCacheEntry(path string, entry *CacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry cache: %w", err)
	}
	data = append(data, '\n')

	if err := fsutil.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("writing registry cache: %w", err)
	}
	return nil
}

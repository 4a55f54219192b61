package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/portal-labs/portals/internal/branding"
	"go.uber.org/zap"
)

// Cache serves the registry from a local cache file, refreshing it from the
// remote URL when stale.
type Cache struct {
	path   string
	url    string
	maxAge time.Duration
	client *resty.Client
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient overrides the resty client used for remote fetches.
func WithHTTPClient(c *resty.Client) Option {
	return func(cache *Cache) { cache.client = c }
}

// WithClock overrides the wall clock used for staleness checks and stamps.
func WithClock(now func() time.Time) Option {
	return func(cache *Cache) { cache.now = now }
}

// WithMaxAge overrides DefaultMaxAge.
func WithMaxAge(d time.Duration) Option {
	return func(cache *Cache) { cache.maxAge = d }
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *zap.Logger) Option {
	return func(cache *Cache) { cache.logger = l }
}

// NewCache returns a Cache storing its file at path and fetching from url.
// url may be http(s), file://, or a plain filesystem path.
func NewCache(path, url string, opts ...Option) *Cache {
	c := &Cache{
		path:   path,
		url:    url,
		maxAge: DefaultMaxAge,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = newHTTPClient()
	}
	return c
}

func newHTTPClient() *resty.Client {
	return resty.New().
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(300*time.Millisecond).
		SetHeader("User-Agent", branding.CLIName()+"-cli").
		SetHeader("Accept", "application/json")
}

// Path returns the cache file location.
func (c *Cache) Path() string { return c.path }

// Fetch returns the registry. Unless force is set, a cache younger than the
// max age is returned without touching the network. A successful remote
// fetch is written back to the cache; a failed one falls back to the cached
// copy of any age.
func (c *Cache) Fetch(ctx context.Context, force bool) (*Registry, error) {
	if !force {
		if entry := c.load(); entry != nil && !IsStale(entry, c.now(), c.maxAge) {
			c.logger.Debug("using cached registry",
				zap.String("path", c.path), zap.Time("lastFetched", entry.LastFetched))
			return &entry.Registry, nil
		}
	}

	reg, fetchErr := c.fetchRemote(ctx)
	if fetchErr == nil {
		entry := &CacheEntry{Registry: *reg, LastFetched: c.now().UTC()}
		if err := SaveCacheEntry(c.path, entry); err != nil {
			c.logger.Warn("could not update registry cache", zap.Error(err))
		}
		return reg, nil
	}

	if entry := c.load(); entry != nil {
		c.logger.Warn("registry unavailable, using cached copy",
			zap.Time("lastFetched", entry.LastFetched), zap.Error(fetchErr))
		return &entry.Registry, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrNoRegistry, fetchErr)
}

// load returns the cache entry, treating unreadable or corrupt files as absent.
func (c *Cache) load() *CacheEntry {
	entry, err := LoadCacheEntry(c.path)
	if err != nil {
		c.logger.Warn("ignoring unusable registry cache", zap.String("path", c.path), zap.Error(err))
		return nil
	}
	return entry
}

func (c *Cache) fetchRemote(ctx context.Context) (*Registry, error) {
	data, err := c.download(ctx)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (c *Cache) download(ctx context.Context) ([]byte, error) {
	if c.url == "" {
		return nil, errors.New("no registry URL configured")
	}

	if path, ok := localPath(c.url); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading registry file: %w", err)
		}
		return data, nil
	}

	c.logger.Debug("fetching registry", zap.String("url", c.url))
	resp, err := c.client.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetching registry from %s: %w", c.url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching registry from %s: HTTP %d", c.url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// localPath reports whether url names a file on disk.
func localPath(url string) (string, bool) {
	if rest, ok := strings.CutPrefix(url, "file://"); ok {
		return rest, true
	}
	if strings.Contains(url, "://") {
		return "", false
	}
	return url, true
}

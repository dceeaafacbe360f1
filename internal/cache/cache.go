// Package cache holds short-lived aggregate results keyed by query shape.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/backoffice-api/pkg/metrics"
)

// Key prefixes
const (
	PrefixDashboard = "dashboard"
	PrefixAnalytics = "analytics"
	PrefixStats     = "stats"
)

type Cache struct {
	store   *gocache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
}

// New returns a cache whose entries live for ttl. A non-positive ttl
// disables caching, as does a nil *Cache.
func New(ttl time.Duration, m *metrics.Metrics) *Cache {
	cleanup := 2 * ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Cache{
		store:   gocache.New(ttl, cleanup),
		ttl:     ttl,
		metrics: m,
	}
}

// Key joins parts into a cache key under prefix.
func Key(prefix string, parts ...string) string {
	return prefix + ":" + strings.Join(parts, ":")
}

func (c *Cache) Get(key string) (interface{}, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	v, ok := c.store.Get(key)
	c.observe(key, ok)
	return v, ok
}

func (c *Cache) Set(key string, v interface{}) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.store.Set(key, v, gocache.DefaultExpiration)
}

// Invalidate drops every entry under the given prefixes.
func (c *Cache) Invalidate(prefixes ...string) {
	if c == nil {
		return
	}
	for key := range c.store.Items() {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p+":") {
				c.store.Delete(key)
				break
			}
		}
	}
}

func (c *Cache) observe(key string, hit bool) {
	if c.metrics == nil {
		return
	}
	label, _, _ := strings.Cut(key, ":")
	if hit {
		c.metrics.CacheHits.WithLabelValues(label).Inc()
		return
	}
	c.metrics.CacheMisses.WithLabelValues(label).Inc()
}

// Remember returns the cached value for key, calling load and caching its
// result on a miss. Errors are not cached.
func Remember[T any](c *Cache, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

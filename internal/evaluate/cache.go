package evaluate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/gallerist/curio/internal/domain/registry"
	"github.com/gallerist/curio/internal/domain/scoring"
	"github.com/gallerist/curio/pkg/metrics"
)

// defaultCacheSize bounds the result cache.
const defaultCacheSize = 1024

// Cache is a size-bounded FIFO cache of evaluation results keyed by
// persona and image content. It is an explicit dependency so callers can
// construct, inject, and reset it per test rather than sharing module
// state. Eviction drops the oldest insertion once the bound is reached.
type Cache struct {
	mu      sync.Mutex
	entries map[string]scoring.RawScoreSet
	order   []string
	maxSize int
}

// CacheOption applies a configuration option to the Cache.
type CacheOption func(*Cache)

// WithCacheSize bounds the number of cached results.
func WithCacheSize(size int) CacheOption {
	return func(c *Cache) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// NewCache creates a bounded result cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]scoring.RawScoreSet),
		maxSize: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached score set for key, if present.
func (c *Cache) Get(key string) (scoring.RawScoreSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.entries[key]
	return set, ok
}

// Put stores a score set, evicting the oldest entry at capacity.
func (c *Cache) Put(key string, set scoring.RawScoreSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = set
		return
	}
	if len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = set
	c.order = append(c.order, key)
}

// Len returns the current number of cached results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset drops all cached results.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]scoring.RawScoreSet)
	c.order = nil
}

// CachedEvaluator decorates an Evaluator with the result cache, so
// resubmitting the same image under the same persona skips the upstream
// call. Fallback score sets are not cached; a later retry should get
// another chance at a genuine evaluation.
type CachedEvaluator struct {
	inner Evaluator
	cache *Cache
}

// NewCachedEvaluator wraps inner with cache.
func NewCachedEvaluator(inner Evaluator, cache *Cache) *CachedEvaluator {
	return &CachedEvaluator{inner: inner, cache: cache}
}

// Evaluate serves from cache when possible.
func (e *CachedEvaluator) Evaluate(ctx context.Context, reg *registry.Registry, img Image) (scoring.RawScoreSet, error) {
	key := cacheKey(reg.Name(), img.Bytes)
	if set, ok := e.cache.Get(key); ok {
		metrics.RecordEvaluationCacheHit()
		return set, nil
	}

	set, err := e.inner.Evaluate(ctx, reg, img)
	if err != nil {
		return set, err
	}
	if !set.HasFlag(FlagEvaluationFailed) {
		e.cache.Put(key, set)
	}
	return set, nil
}

// cacheKey hashes the image content under the persona namespace.
func cacheKey(persona string, imageBytes []byte) string {
	sum := sha256.Sum256(imageBytes)
	return persona + ":" + hex.EncodeToString(sum[:])
}

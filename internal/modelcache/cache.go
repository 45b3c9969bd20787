// Package modelcache loads prefab models once per file and shares the
// decoded graphs between every placement that references them.
package modelcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"snowcity/internal/catalog"
	"snowcity/internal/gltfload"
	"snowcity/internal/model"
	"snowcity/internal/scenery"
)

// Loader resolves a model reference to a loaded graph. The returned graph is
// shared: callers must Clone before changing node state.
type Loader interface {
	Load(ctx context.Context, ref string) (*model.Graph, error)
}

// DecodeFunc decodes one model file.
type DecodeFunc func(path string) (*model.Graph, error)

// Cache is a concurrency-safe model cache keyed by resolved path.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]*cacheEntry
	index  *catalog.Index
	decode DecodeFunc
	group  singleflight.Group
}

type cacheEntry struct {
	graph *model.Graph
	err   error // failed loads are cached too; retry policy belongs to the caller
}

// NewCache creates a cache backed by the given index, decoding with gltfload.
func NewCache(index *catalog.Index) *Cache {
	return NewCacheWith(index, gltfload.Load)
}

// NewCacheWith creates a cache with a custom decoder.
func NewCacheWith(index *catalog.Index, decode DecodeFunc) *Cache {
	return &Cache{
		items:  make(map[string]*cacheEntry),
		index:  index,
		decode: decode,
	}
}

// Load returns the graph for ref. Errors wrap scenery.ErrResourceLoad.
func (c *Cache) Load(ctx context.Context, ref string) (*model.Graph, error) {
	path, ok := c.index.ResolvePath(ref)
	if !ok {
		return nil, fmt.Errorf("modelcache: %q not in catalog: %w", ref, scenery.ErrResourceLoad)
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.graph, entry.err
	}
	c.mu.RUnlock()

	// Slow path: one decode per path even under concurrent misses
	ch := c.group.DoChan(path, func() (any, error) {
		c.mu.RLock()
		if entry, exists := c.items[path]; exists {
			c.mu.RUnlock()
			return entry, nil
		}
		c.mu.RUnlock()

		g, err := c.decode(path)
		if err != nil {
			slog.Warn("model load failed", "ref", ref, "path", path, "err", err)
			err = fmt.Errorf("modelcache: load %q: %w: %w", ref, scenery.ErrResourceLoad, err)
		} else {
			slog.Debug("model loaded", "ref", ref, "path", path)
		}
		entry := &cacheEntry{graph: g, err: err}

		c.mu.Lock()
		c.items[path] = entry
		c.mu.Unlock()
		return entry, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		entry := res.Val.(*cacheEntry)
		return entry.graph, entry.err
	}
}

// Preload loads every ref, returning the first failure.
func (c *Cache) Preload(ctx context.Context, refs []string) error {
	for _, r := range refs {
		if _, err := c.Load(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of cached paths, including failed ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

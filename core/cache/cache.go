package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrUnknownAttribute indicates a lookup by an attribute that was never
// declared cacheable for the type. This is a programming error and is
// reported immediately rather than masked as a miss.
var ErrUnknownAttribute = errors.New("attribute not declared cacheable")

// Attr declares one cacheable attribute for an entity type. Key extracts the
// attribute's value; the mapping from value to entity must be injective.
type Attr[T any] struct {
	// Name identifies the attribute in lookups (e.g. "id", "mic", "uid").
	Name string
	// Key extracts the attribute value. An empty value is not indexed.
	Key func(T) string
}

// Loader supplies entities from the durable store on cache misses.
type Loader[T any] interface {
	// LoadOne returns the single entity matching attr=key, if any.
	LoadOne(ctx context.Context, attr, key string) (T, bool, error)
	// LoadMany returns all entities whose attr value is in keys.
	LoadMany(ctx context.Context, attr string, keys []string) ([]T, error)
	// LoadAll returns every entity of the type, used to prime the cache
	// once per process start.
	LoadAll(ctx context.Context) ([]T, error)
}

// Cache is a per-entity-type cache keyed by a declared set of attributes.
// An entity inserted with Put is reachable under every one of its attribute
// values atomically. One mutex per cache guards both map mutation and the
// read-then-fill composite of the load operations, so a concurrent reader can
// never observe a transient "still missing" state after another goroutine
// began the same fill.
//
// The cache is not invalidated by store writes made elsewhere: callers that
// persist a changed entity must re-Put the refreshed copy.
type Cache[T any] struct {
	name   string
	attrs  []Attr[T]
	byName map[string]func(T) string
	loader Loader[T]
	log    *zap.Logger

	mu   sync.Mutex
	maps map[string]map[string]T

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache for one entity type with an explicitly declared set of
// cacheable attributes. At least one attribute is required.
func New[T any](name string, loader Loader[T], log *zap.Logger, attrs ...Attr[T]) (*Cache[T], error) {
	if len(attrs) == 0 {
		return nil, fmt.Errorf("cache %s: no cacheable attributes declared", name)
	}

	c := &Cache[T]{
		name:   name,
		attrs:  attrs,
		byName: make(map[string]func(T) string, len(attrs)),
		loader: loader,
		log:    log,
		maps:   make(map[string]map[string]T, len(attrs)),
	}
	for _, a := range attrs {
		if a.Name == "" || a.Key == nil {
			return nil, fmt.Errorf("cache %s: invalid attribute declaration", name)
		}
		if _, dup := c.byName[a.Name]; dup {
			return nil, fmt.Errorf("cache %s: duplicate attribute %s", name, a.Name)
		}
		c.byName[a.Name] = a.Key
		c.maps[a.Name] = make(map[string]T)
	}
	return c, nil
}

// KeyOf returns the entity's value for the named cacheable attribute.
func (c *Cache[T]) KeyOf(attr string, e T) (string, error) {
	keyFn, ok := c.byName[attr]
	if !ok {
		return "", fmt.Errorf("cache %s: %w: %s", c.name, ErrUnknownAttribute, attr)
	}
	return keyFn(e), nil
}

// Put inserts or overwrites the entity under every cacheable attribute value.
func (c *Cache[T]) Put(e T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(e)
}

func (c *Cache[T]) putLocked(e T) {
	for _, a := range c.attrs {
		if key := a.Key(e); key != "" {
			c.maps[a.Name][key] = e
		}
	}
}

// Get returns the cached entity for attr=key, if present. It never falls
// through to the store.
func (c *Cache[T]) Get(attr, key string) (T, bool, error) {
	var zero T
	if _, ok := c.byName[attr]; !ok {
		return zero, false, fmt.Errorf("cache %s: %w: %s", c.name, ErrUnknownAttribute, attr)
	}

	c.mu.Lock()
	e, ok := c.maps[attr][key]
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok, nil
}

// GetOrLoad returns the cached entity for attr=key, querying the store on a
// miss and populating the cache with the result. Absence in the store is not
// an error.
func (c *Cache[T]) GetOrLoad(ctx context.Context, attr, key string) (T, bool, error) {
	var zero T
	if _, ok := c.byName[attr]; !ok {
		return zero, false, fmt.Errorf("cache %s: %w: %s", c.name, ErrUnknownAttribute, attr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.maps[attr][key]; ok {
		c.hits.Add(1)
		return e, true, nil
	}
	c.misses.Add(1)

	e, found, err := c.loader.LoadOne(ctx, attr, key)
	if err != nil {
		return zero, false, fmt.Errorf("cache %s: load %s=%s: %w", c.name, attr, key, err)
	}
	if !found {
		return zero, false, nil
	}
	c.putLocked(e)
	return e, true, nil
}

// GetAllOrLoad returns the entities for all given keys of attr, issuing a
// single store query for the keys not already cached. Keys with no matching
// row are simply absent from the result.
func (c *Cache[T]) GetAllOrLoad(ctx context.Context, attr string, keys []string) ([]T, error) {
	if _, ok := c.byName[attr]; !ok {
		return nil, fmt.Errorf("cache %s: %w: %s", c.name, ErrUnknownAttribute, attr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	found := make([]T, 0, len(keys))
	var missing []string
	for _, key := range keys {
		if e, ok := c.maps[attr][key]; ok {
			c.hits.Add(1)
			found = append(found, e)
			continue
		}
		c.misses.Add(1)
		missing = append(missing, key)
	}

	if len(missing) == 0 {
		return found, nil
	}

	loaded, err := c.loader.LoadMany(ctx, attr, missing)
	if err != nil {
		return nil, fmt.Errorf("cache %s: load %d %s keys: %w", c.name, len(missing), attr, err)
	}
	for _, e := range loaded {
		c.putLocked(e)
		found = append(found, e)
	}
	return found, nil
}

// Prime loads the full identity projection of the type into the cache.
// Intended to run once per process start.
func (c *Cache[T]) Prime(ctx context.Context) (int, error) {
	all, err := c.loader.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("cache %s: prime: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range all {
		c.putLocked(e)
	}

	c.log.Debug("cache primed", zap.String("cache", c.name), zap.Int("entities", len(all)))
	return len(all), nil
}

// Stats returns the hit and miss counters. Observability only.
func (c *Cache[T]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

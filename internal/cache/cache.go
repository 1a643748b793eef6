// Package cache keeps whole entity collections in memory for a fixed
// freshness window. Mutations update the cached copy in place after the
// repository write succeeded, so a cached list never runs ahead of storage.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brokerdesk_cache_hits_total",
		Help: "Collection cache hits.",
	}, []string{"collection"})
	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "brokerdesk_cache_misses_total",
		Help: "Collection cache misses.",
	}, []string{"collection"})
)

const allKey = "all"

type entry[T any] struct {
	mu    sync.RWMutex
	items []T
}

// Collection caches the full list of one entity kind.
type Collection[T any] struct {
	name string
	id   func(T) uuid.UUID
	lru  *expirable.LRU[string, *entry[T]]
}

// New builds a collection cache. id extracts the primary key used by Upsert
// and Remove.
func New[T any](name string, ttl time.Duration, id func(T) uuid.UUID) *Collection[T] {
	return &Collection[T]{
		name: name,
		id:   id,
		lru:  expirable.NewLRU[string, *entry[T]](1, nil, ttl),
	}
}

// Load returns the cached list, calling fetch on a miss. The returned slice is
// a copy the caller may modify.
func (c *Collection[T]) Load(ctx context.Context, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if e, ok := c.lru.Get(allKey); ok {
		hitsTotal.WithLabelValues(c.name).Inc()
		e.mu.RLock()
		defer e.mu.RUnlock()
		return append([]T(nil), e.items...), nil
	}
	missesTotal.WithLabelValues(c.name).Inc()

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.lru.Add(allKey, &entry[T]{items: append([]T(nil), items...)})
	return items, nil
}

// Upsert replaces the cached record with the same id, or appends it. Nothing
// happens when the collection is not cached. The freshness window is kept.
func (c *Collection[T]) Upsert(item T) {
	e, ok := c.lru.Peek(allKey)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	id := c.id(item)
	for i := range e.items {
		if c.id(e.items[i]) == id {
			e.items[i] = item
			return
		}
	}
	e.items = append(e.items, item)
}

// Remove drops the record with the given id from the cached list.
func (c *Collection[T]) Remove(id uuid.UUID) {
	e, ok := c.lru.Peek(allKey)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.items {
		if c.id(e.items[i]) == id {
			e.items = append(e.items[:i], e.items[i+1:]...)
			return
		}
	}
}

// Invalidate forgets the cached list.
func (c *Collection[T]) Invalidate() { c.lru.Remove(allKey) }

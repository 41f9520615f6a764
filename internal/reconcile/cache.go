package reconcile

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 10000

// Entry is the cached view of one entity
type Entry struct {
	Envelope   Envelope
	Optimistic bool
}

// Cache merges deltas and reads with last-writer-wins by (version, updatedAt).
// Optimistic entries are local guesses; any authoritative value with an equal
// or newer version replaces them.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, Entry]
}

// NewCache creates a bounded cache
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconcile cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Apply merges an authoritative delta or read. It returns false when the
// envelope is older than, or a duplicate of, what is already held.
func (c *Cache) Apply(env Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := env.Key()
	current, ok := c.entries.Get(key)
	switch {
	case !ok:
	case current.Optimistic && env.Version >= current.Envelope.Version:
	case isNewer(env, current.Envelope):
	default:
		return false
	}

	c.entries.Add(key, Entry{Envelope: env})
	return true
}

// ApplyOptimistic records an unconfirmed local change. It is refused when an
// authoritative value at the same or a newer version is already held.
func (c *Cache) ApplyOptimistic(env Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := env.Key()
	if current, ok := c.entries.Get(key); ok && !current.Optimistic && current.Envelope.Version >= env.Version {
		return false
	}
	c.entries.Add(key, Entry{Envelope: env, Optimistic: true})
	return true
}

// Get returns the cached entry of an entity
func (c *Cache) Get(entityType EntityType, id string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(EntityKey(entityType, id))
}

// Len returns the number of cached entities
func (c *Cache) Len() int {
	return c.entries.Len()
}

func isNewer(a, b Envelope) bool {
	if a.Version != b.Version {
		return a.Version > b.Version
	}
	return a.UpdatedAt.After(b.UpdatedAt)
}

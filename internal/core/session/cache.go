package session

import (
	"sync"

	"github.com/visualcraft/marketplace/internal/core/domain"
)

// ActorCache is the shared last-known-actor lookup, keyed by id. It is a
// best-effort cache populated lazily and overwritten with full snapshots;
// the authoritative record always lives in the external store. Writes are
// idempotent full replacements, so interleaved updates never need a
// read-modify-write cycle.
type ActorCache struct {
	mu sync.RWMutex
	m  map[string]*domain.User
}

func NewActorCache() *ActorCache {
	return &ActorCache{m: make(map[string]*domain.User)}
}

// Get returns a copy of the cached snapshot, if any.
func (c *ActorCache) Get(id string) (*domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.m[id]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// Put replaces the cached snapshot for the user's id.
func (c *ActorCache) Put(u *domain.User) {
	if u == nil || u.ID == "" {
		return
	}
	c.mu.Lock()
	c.m[u.ID] = u.Clone()
	c.mu.Unlock()
}

// Remove drops an entry, e.g. after an account deletion.
func (c *ActorCache) Remove(id string) {
	c.mu.Lock()
	delete(c.m, id)
	c.mu.Unlock()
}

// Len returns the number of cached actors.
func (c *ActorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

package ledger

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

// balanceCache is the in-memory view of player state between durable writes.
// Entries are stored by value; readers get copies and mutations go through
// put, so no caller ever aliases cache-internal state.
type balanceCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]players.Player
}

func newBalanceCache() *balanceCache {
	return &balanceCache{entries: make(map[uuid.UUID]players.Player)}
}

func (c *balanceCache) get(id uuid.UUID) (players.Player, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.entries[id]

	return p, ok
}

func (c *balanceCache) put(p players.Player) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[p.ID] = p
}

func (c *balanceCache) evict(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, id)
}

// snapshot returns a point-in-time copy of all cached entries.
func (c *balanceCache) snapshot() []players.Player {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]players.Player, 0, len(c.entries))
	for _, p := range c.entries {
		out = append(out, p)
	}

	return out
}

func (c *balanceCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

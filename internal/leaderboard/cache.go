// Package leaderboard caches the top-N balance views so scoreboard reads do
// not hit the database on every call.
package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

const (
	// SnapshotSize is how many rows each refresh pulls per currency.
	SnapshotSize = 100

	// MinTTL is the enforced floor for the refresh interval.
	MinTTL = time.Minute
)

// Source is the slice of the players store the cache reads from.
type Source interface {
	TopBalances(ctx context.Context, kind players.Kind, limit int) ([]players.RankedBalance, error)
	Rank(ctx context.Context, id uuid.UUID, kind players.Kind) (int, error)
}

type snapshot struct {
	coins  []players.RankedBalance
	tokens []players.RankedBalance
}

type Cache struct {
	src Source
	ttl time.Duration
	now func() time.Time

	// refreshMu serializes refreshes; readers never take it unless stale.
	refreshMu sync.Mutex

	snap        atomic.Pointer[snapshot]
	refreshedAt atomic.Int64 // unix nanos; zero forces a refresh
}

func New(src Source, ttl time.Duration) *Cache {
	if ttl < MinTTL {
		ttl = MinTTL
	}

	return &Cache{
		src: src,
		ttl: ttl,
		now: time.Now,
	}
}

// Top returns up to limit entries for kind, descending by amount. A stale
// snapshot triggers a synchronous refresh; concurrent callers arriving during
// the refresh wait on refreshMu and then reuse the fresh snapshot.
func (c *Cache) Top(ctx context.Context, kind players.Kind, limit int) ([]players.RankedBalance, error) {
	if c.stale() {
		err := c.refresh(ctx)
		if err != nil {
			return nil, err
		}
	}

	snap := c.snap.Load()
	if snap == nil {
		return nil, nil
	}

	rows := snap.coins
	if kind == players.KindTokens {
		rows = snap.tokens
	}

	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}

	out := make([]players.RankedBalance, limit)
	copy(out, rows[:limit])

	return out, nil
}

// Invalidate forces the next Top call to refresh. Called after any mutation
// that can change ranking.
func (c *Cache) Invalidate() {
	c.refreshedAt.Store(0)
}

// Rank bypasses the snapshot and reads committed state directly.
func (c *Cache) Rank(ctx context.Context, id uuid.UUID, kind players.Kind) (int, error) {
	return c.src.Rank(ctx, id, kind)
}

func (c *Cache) stale() bool {
	at := c.refreshedAt.Load()

	return at == 0 || c.now().Sub(time.Unix(0, at)) > c.ttl
}

func (c *Cache) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Double-check: a concurrent caller may have refreshed while we waited.
	if !c.stale() {
		return nil
	}

	coins, err := c.src.TopBalances(ctx, players.KindCoins, SnapshotSize)
	if err != nil {
		return fmt.Errorf("refresh coins leaderboard: %w", err)
	}

	tokens, err := c.src.TopBalances(ctx, players.KindTokens, SnapshotSize)
	if err != nil {
		return fmt.Errorf("refresh tokens leaderboard: %w", err)
	}

	c.snap.Store(&snapshot{coins: coins, tokens: tokens})
	c.refreshedAt.Store(c.now().UnixNano())

	return nil
}

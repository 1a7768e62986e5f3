// Package ledger is the authoritative balance engine: it owns the in-memory
// player cache, the per-player locking discipline, and the orchestration of
// durable balance changes, transfers, session lifecycle, and leaderboards.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/events"
	"github.com/pixelforge/coinledger/internal/leaderboard"
	"github.com/pixelforge/coinledger/internal/repos/players"
	"github.com/pixelforge/coinledger/pkg/keylock"
)

type Service struct {
	cfg   Config
	store Store
	lb    *leaderboard.Cache
	pub   events.Publisher

	locks *keylock.Registry
	cache *balanceCache

	sessionMu sync.Mutex
	sessions  map[uuid.UUID]time.Time

	now func() time.Time
}

func New(cfg Config, store Store, lb *leaderboard.Cache, pub events.Publisher) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		lb:       lb,
		pub:      pub,
		locks:    keylock.NewRegistry(),
		cache:    newBalanceCache(),
		sessions: make(map[uuid.UUID]time.Time),
		now:      time.Now,
	}
}

// Balance returns the player's balance for kind, creating the player with
// starting balances on first sight.
func (s *Service) Balance(ctx context.Context, id uuid.UUID, kind players.Kind) (int64, error) {
	p, err := s.entry(ctx, id)
	if err != nil {
		return 0, err
	}

	return p.BalanceOf(kind), nil
}

func (s *Service) HasAtLeast(ctx context.Context, id uuid.UUID, kind players.Kind, amount int64) (bool, error) {
	balance, err := s.Balance(ctx, id, kind)
	if err != nil {
		return false, err
	}

	return balance >= amount, nil
}

// AddBalance credits amount, clamped so the balance never exceeds the
// configured ceiling. Returns the resulting balance.
func (s *Service) AddBalance(ctx context.Context, id uuid.UUID, kind players.Kind, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	return s.change(ctx, id, kind, amount, reason)
}

// RemoveBalance debits amount, clamped so the balance never drops below zero.
func (s *Service) RemoveBalance(ctx context.Context, id uuid.UUID, kind players.Kind, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	return s.change(ctx, id, kind, -amount, reason)
}

func (s *Service) Top(ctx context.Context, kind players.Kind, limit int) ([]players.RankedBalance, error) {
	return s.lb.Top(ctx, kind, limit)
}

func (s *Service) Rank(ctx context.Context, id uuid.UUID, kind players.Kind) (int, error) {
	return s.lb.Rank(ctx, id, kind)
}

// OnSessionStart ensures the player exists, opportunistically refreshes
// the display name, and starts the playtime clock. Idempotent: a second call
// for the same id only resets the clock.
func (s *Service) OnSessionStart(ctx context.Context, id uuid.UUID, displayName string) error {
	if id == uuid.Nil {
		return ErrInvalidPlayer
	}

	mu := s.locks.Get(id.String())
	mu.Lock()
	defer mu.Unlock()

	p, err := s.loadLocked(ctx, id, displayName)
	if err != nil {
		return err
	}

	if displayName != "" && p.DisplayName != displayName {
		p.DisplayName = displayName
	}

	p.LastSeen = s.now()
	s.cache.put(p)

	s.sessionMu.Lock()
	s.sessions[id] = s.now()
	s.sessionMu.Unlock()

	return nil
}

// OnSessionEnd accumulates playtime, persists session metadata, and drops the
// cache entry and lock for the player.
func (s *Service) OnSessionEnd(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrInvalidPlayer
	}

	mu := s.locks.Get(id.String())
	mu.Lock()

	err := func() error {
		defer mu.Unlock()

		p, ok := s.cache.get(id)
		if !ok {
			return nil
		}

		s.sessionMu.Lock()
		started, tracked := s.sessions[id]
		delete(s.sessions, id)
		s.sessionMu.Unlock()

		now := s.now()
		if tracked {
			p.TotalPlaytime += int64(now.Sub(started).Seconds())
		}

		p.LastSeen = now

		err := s.store.SavePlayer(ctx, p)
		if err != nil {
			// Keep the entry cached so a later flush can persist it.
			s.cache.put(p)

			return fmt.Errorf("flush on session end: %w", err)
		}

		s.cache.evict(id)

		return nil
	}()
	if err != nil {
		return err
	}

	s.locks.Forget(id.String())

	return nil
}

// FlushAll persists session metadata for every cached player. Balances are
// already durable at mutation time and are not part of the flush.
func (s *Service) FlushAll(ctx context.Context) error {
	var errs []error

	for _, p := range s.cache.snapshot() {
		err := s.store.SavePlayer(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("flush player %s: %w", p.ID, err))
		}
	}

	return errors.Join(errs...)
}

// entry returns the cached player, loading or creating it under the player's
// lock on a miss.
func (s *Service) entry(ctx context.Context, id uuid.UUID) (players.Player, error) {
	if id == uuid.Nil {
		return players.Player{}, ErrInvalidPlayer
	}

	if p, ok := s.cache.get(id); ok {
		return p, nil
	}

	mu := s.locks.Get(id.String())
	mu.Lock()
	defer mu.Unlock()

	return s.loadLocked(ctx, id, "")
}

// loadLocked populates the cache from the store, creating the row with
// starting balances on first sight. Caller must hold the player's lock; the
// lock serializes concurrent first access so at most one insert happens and
// the losers observe the winner's entry through the cache double-check.
func (s *Service) loadLocked(ctx context.Context, id uuid.UUID, displayName string) (players.Player, error) {
	if p, ok := s.cache.get(id); ok {
		return p, nil
	}

	p, err := s.store.GetPlayer(ctx, id)

	switch {
	case err == nil:

	case errors.Is(err, players.ErrPlayerNotFound):
		now := s.now()
		p = players.Player{
			ID:          id,
			DisplayName: displayName,
			Coins:       s.cfg.StartingCoins,
			Tokens:      s.cfg.StartingTokens,
			FirstSeen:   now,
			LastSeen:    now,
		}

		err = s.store.CreatePlayer(ctx, p)
		if err != nil {
			return players.Player{}, err
		}

	default:
		// A failed read never poisons the cache; any previous entry stays.
		return players.Player{}, err
	}

	s.cache.put(p)

	return p, nil
}

// change applies a clamped delta under the player's lock. A delta that clamps
// to zero is a silent no-op: no store call, no event.
func (s *Service) change(ctx context.Context, id uuid.UUID, kind players.Kind, delta int64, reason string) (int64, error) {
	if id == uuid.Nil {
		return 0, ErrInvalidPlayer
	}

	mu := s.locks.Get(id.String())
	mu.Lock()

	balance, emit, err := func() (int64, bool, error) {
		defer mu.Unlock()

		p, err := s.loadLocked(ctx, id, "")
		if err != nil {
			return 0, false, err
		}

		current := p.BalanceOf(kind)

		delta = clampDelta(current, delta, s.cfg.maxFor(kind))
		if delta == 0 {
			return current, false, nil
		}

		newBalance, err := s.store.ApplyDelta(ctx, id, kind, delta, s.cfg.maxFor(kind), reason)
		if err != nil {
			return 0, false, err
		}

		p.SetBalance(kind, newBalance)
		p.LastSeen = s.now()
		s.cache.put(p)
		s.lb.Invalidate()

		return newBalance, true, nil
	}()
	if err != nil {
		return 0, err
	}

	if emit {
		s.publish(ctx, events.BalanceChanged{
			PlayerID:     id,
			Kind:         kind,
			Delta:        delta,
			BalanceAfter: balance,
			Reason:       reason,
			OccurredAt:   s.now(),
		})
	}

	return balance, nil
}

// clampDelta shrinks delta so current+delta stays inside [0, max]. Computed
// against the available headroom rather than current+delta, which would
// overflow for large deltas and flip the sign of the result.
func clampDelta(current, delta, max int64) int64 {
	if delta < 0 {
		if delta < -current {
			return -current
		}

		return delta
	}

	room := int64(math.MaxInt64) - current
	if max > 0 {
		room = max - current
	}

	if room < 0 {
		room = 0
	}

	if delta > room {
		return room
	}

	return delta
}

// publish is fire-and-forget: event delivery never fails a committed
// mutation. Always called after the player locks are released.
func (s *Service) publish(ctx context.Context, ev events.BalanceChanged) {
	err := s.pub.Publish(ctx, ev)
	if err != nil {
		slog.Warn("publish balance event failed", "playerId", ev.PlayerID, "error", err)
	}
}

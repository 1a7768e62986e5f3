package players

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCeilingExceeded   = errors.New("balance ceiling exceeded")
	ErrNotRanked         = errors.New("player not ranked")
)

// Kind selects one of the two tracked currencies.
type Kind string

const (
	KindCoins  Kind = "coins"
	KindTokens Kind = "tokens"
)

var ErrInvalidKind = errors.New("invalid currency kind")

// ParseKind maps the wire form ("coins"/"tokens") to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCoins:
		return KindCoins, nil
	case KindTokens:
		return KindTokens, nil
	default:
		return "", ErrInvalidKind
	}
}

// Player mirrors one row of the players table.
type Player struct {
	ID            uuid.UUID
	DisplayName   string
	Coins         int64
	Tokens        int64
	FirstSeen     time.Time
	LastSeen      time.Time
	TotalPlaytime int64 // seconds
}

// BalanceOf returns the balance for the given kind.
func (p Player) BalanceOf(kind Kind) int64 {
	if kind == KindTokens {
		return p.Tokens
	}

	return p.Coins
}

// SetBalance replaces the balance for the given kind.
func (p *Player) SetBalance(kind Kind, balance int64) {
	if kind == KindTokens {
		p.Tokens = balance
		return
	}

	p.Coins = balance
}

// RankedBalance is one leaderboard row.
type RankedBalance struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Amount      int64     `json:"amount"`
}

type Players interface {
	Get(ctx context.Context, id uuid.UUID) (Player, error)
	Insert(tx *sql.Tx, p Player) error
	LockAndGetBalance(tx *sql.Tx, id uuid.UUID, kind Kind) (int64, error)
	SetBalance(tx *sql.Tx, id uuid.UUID, kind Kind, balance int64) error
	IncreaseBalance(tx *sql.Tx, id uuid.UUID, kind Kind, amount int64) error
	DecreaseBalance(tx *sql.Tx, id uuid.UUID, kind Kind, amount int64) error
	Save(ctx context.Context, p Player) error
	TopBalances(ctx context.Context, kind Kind, limit int) ([]RankedBalance, error)
	Rank(ctx context.Context, id uuid.UUID, kind Kind) (int, error)
}

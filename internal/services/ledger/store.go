package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

// Store is the durable side of the ledger. Every mutation is all-or-nothing:
// a rejected or failed call leaves both balances and the audit log untouched.
type Store interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (players.Player, error)

	// CreatePlayer inserts the row if absent; a duplicate id is success.
	CreatePlayer(ctx context.Context, p players.Player) error

	// ApplyDelta adds delta (may be negative) to one balance inside a single
	// store transaction and returns the new balance. Results below zero or
	// above max roll back with ErrInsufficientFunds / ErrCeilingExceeded.
	ApplyDelta(ctx context.Context, id uuid.UUID, kind players.Kind, delta, max int64, reason string) (int64, error)

	// ExecuteTransfer moves amount coins from sender to receiver, crediting
	// amount-tax, inside a single store transaction.
	ExecuteTransfer(ctx context.Context, from, to uuid.UUID, amount, tax, receiverMax int64, reason string) (TransferResult, error)

	// SavePlayer persists session metadata (name, last seen, playtime).
	SavePlayer(ctx context.Context, p players.Player) error
}

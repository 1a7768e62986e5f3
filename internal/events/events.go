package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

// BalanceChanged is emitted after a committed balance mutation. Delta carries
// sign: negative for the losing side of a transfer or a removal.
type BalanceChanged struct {
	PlayerID     uuid.UUID    `json:"playerId"`
	Kind         players.Kind `json:"kind"`
	Delta        int64        `json:"delta"`
	BalanceAfter int64        `json:"balanceAfter"`
	Reason       string       `json:"reason"`
	OccurredAt   time.Time    `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, ev BalanceChanged) error
}

// LogPublisher writes events to the default slog logger. Used when no broker
// is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev BalanceChanged) error {
	slog.Info("balance changed",
		"playerId", ev.PlayerID,
		"kind", ev.Kind,
		"delta", ev.Delta,
		"balanceAfter", ev.BalanceAfter,
		"reason", ev.Reason,
	)

	return nil
}

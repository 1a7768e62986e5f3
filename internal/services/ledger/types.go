package ledger

import (
	"errors"
	"time"

	"github.com/pixelforge/coinledger/internal/repos/players"
)

var (
	ErrTransfersDisabled = errors.New("transfers are disabled")
	ErrSelfTransfer      = errors.New("cannot transfer to self")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidPlayer     = errors.New("invalid player id")
)

// Config carries the deployment-supplied ledger rules.
type Config struct {
	MaxCoins           int64
	MaxTokens          int64
	StartingCoins      int64
	StartingTokens     int64
	AllowTransfers     bool
	TransferTaxPercent float64
	LogTransactions    bool
	LeaderboardRefresh time.Duration
	AutoFlushInterval  time.Duration
}

func (c Config) maxFor(kind players.Kind) int64 {
	if kind == players.KindTokens {
		return c.MaxTokens
	}

	return c.MaxCoins
}

// TransferResult reports a committed transfer. Amount is what the sender
// lost; Net is what the receiver gained; Amount == Net + Tax always holds.
type TransferResult struct {
	Amount          int64 `json:"amount"`
	Tax             int64 `json:"tax"`
	Net             int64 `json:"net"`
	SenderBalance   int64 `json:"senderBalance"`
	ReceiverBalance int64 `json:"receiverBalance"`
}

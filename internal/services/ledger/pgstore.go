package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/infra/pgutils"
	"github.com/pixelforge/coinledger/internal/repos/ledgerlog"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

// pgStore implements Store over Postgres by composing the players and
// ledger-log repos inside pgutils.WithTx transactions. The row lock taken by
// LockAndGetBalance is a second line of defense behind the in-process key
// locks; it also protects against callers that reach the store directly.
type pgStore struct {
	db         *sql.DB
	players    players.Players
	log        ledgerlog.Log
	logEnabled bool
}

func NewStore(db *sql.DB, p players.Players, l ledgerlog.Log, logEnabled bool) *pgStore {
	return &pgStore{db: db, players: p, log: l, logEnabled: logEnabled}
}

var _ Store = (*pgStore)(nil)

func (s *pgStore) GetPlayer(ctx context.Context, id uuid.UUID) (players.Player, error) {
	p, err := s.players.Get(ctx, id)
	if err != nil {
		if errors.Is(err, players.ErrPlayerNotFound) {
			return players.Player{}, err
		}

		slog.Error("load player failed", "playerId", id, "error", err)

		return players.Player{}, fmt.Errorf("get player: %w", err)
	}

	return p, nil
}

func (s *pgStore) CreatePlayer(ctx context.Context, p players.Player) error {
	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.players.Insert(tx, p)
	})
	if err != nil {
		slog.Error("create player failed", "playerId", p.ID, "error", err)

		return fmt.Errorf("create player: %w", err)
	}

	return nil
}

func (s *pgStore) ApplyDelta(ctx context.Context, id uuid.UUID, kind players.Kind, delta, max int64, reason string) (int64, error) {
	var newBalance int64

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		current, err := s.players.LockAndGetBalance(tx, id, kind)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		next := current + delta
		if next < 0 {
			return players.ErrInsufficientFunds
		}

		if max > 0 && next > max {
			return players.ErrCeilingExceeded
		}

		err = s.players.SetBalance(tx, id, kind, next)
		if err != nil {
			return fmt.Errorf("set balance: %w", err)
		}

		if s.logEnabled {
			err = s.log.Insert(tx, ledgerlog.Record{
				OwnerID:      id,
				Kind:         deltaLogKind(kind, delta),
				Amount:       absInt64(delta),
				BalanceAfter: next,
				Reason:       reason,
			})
			if err != nil {
				return fmt.Errorf("insert audit record: %w", err)
			}
		}

		newBalance = next

		return nil
	})
	if err != nil {
		if !isRejection(err) {
			slog.Error("apply delta failed", "playerId", id, "kind", kind, "delta", delta, "error", err)
		}

		return 0, fmt.Errorf("apply delta: %w", err)
	}

	return newBalance, nil
}

// ExecuteTransfer moves coins between two players. Rows are locked in lexical
// id order so concurrent opposite-direction transfers cannot deadlock on the
// database side either.
func (s *pgStore) ExecuteTransfer(ctx context.Context, from, to uuid.UUID, amount, tax, receiverMax int64, reason string) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}

	net := amount - tax

	var res TransferResult

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		first, second := from, to
		if second.String() < first.String() {
			first, second = second, first
		}

		firstBal, err := s.players.LockAndGetBalance(tx, first, players.KindCoins)
		if err != nil {
			return fmt.Errorf("lock first party: %w", err)
		}

		secondBal, err := s.players.LockAndGetBalance(tx, second, players.KindCoins)
		if err != nil {
			return fmt.Errorf("lock second party: %w", err)
		}

		senderBal, receiverBal := firstBal, secondBal
		if first != from {
			senderBal, receiverBal = secondBal, firstBal
		}

		if senderBal < amount {
			return players.ErrInsufficientFunds
		}

		if receiverMax > 0 && receiverBal+net > receiverMax {
			return players.ErrCeilingExceeded
		}

		err = s.players.DecreaseBalance(tx, from, players.KindCoins, amount)
		if err != nil {
			return fmt.Errorf("debit sender: %w", err)
		}

		err = s.players.IncreaseBalance(tx, to, players.KindCoins, net)
		if err != nil {
			return fmt.Errorf("credit receiver: %w", err)
		}

		if s.logEnabled {
			err = s.log.Insert(tx, ledgerlog.Record{
				OwnerID:      from,
				Kind:         ledgerlog.KindTransfer,
				Amount:       amount,
				BalanceAfter: senderBal - amount,
				Reason:       reason,
			})
			if err != nil {
				return fmt.Errorf("log sender debit: %w", err)
			}

			if net > 0 {
				err = s.log.Insert(tx, ledgerlog.Record{
					OwnerID:      to,
					Kind:         ledgerlog.KindTransfer,
					Amount:       net,
					BalanceAfter: receiverBal + net,
					Reason:       reason,
				})
				if err != nil {
					return fmt.Errorf("log receiver credit: %w", err)
				}
			}
		}

		res = TransferResult{
			Amount:          amount,
			Tax:             tax,
			Net:             net,
			SenderBalance:   senderBal - amount,
			ReceiverBalance: receiverBal + net,
		}

		return nil
	})
	if err != nil {
		if !isRejection(err) {
			slog.Error("transfer failed", "from", from, "to", to, "amount", amount, "error", err)
		}

		return TransferResult{}, fmt.Errorf("execute transfer: %w", err)
	}

	return res, nil
}

func (s *pgStore) SavePlayer(ctx context.Context, p players.Player) error {
	err := s.players.Save(ctx, p)
	if err != nil {
		slog.Error("save player failed", "playerId", p.ID, "error", err)

		return fmt.Errorf("save player: %w", err)
	}

	return nil
}

// isRejection tells business-rule rejections apart from infrastructure
// failures for logging purposes.
func isRejection(err error) bool {
	return errors.Is(err, players.ErrInsufficientFunds) ||
		errors.Is(err, players.ErrCeilingExceeded) ||
		errors.Is(err, players.ErrPlayerNotFound)
}

func deltaLogKind(kind players.Kind, delta int64) string {
	switch {
	case kind == players.KindTokens && delta < 0:
		return ledgerlog.KindTokensRemove
	case kind == players.KindTokens:
		return ledgerlog.KindTokensAdd
	case delta < 0:
		return ledgerlog.KindCoinsRemove
	default:
		return ledgerlog.KindCoinsAdd
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}

package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/events"
	"github.com/pixelforge/coinledger/internal/repos/players"
	"github.com/shopspring/decimal"
)

// Transfer moves amount coins from one player to another. The receiver is
// credited amount minus tax; the sender always loses exactly amount, so
// sender loss == receiver gain + tax for every committed transfer.
//
// Both players' locks are taken in sorted order for the whole
// check-persist-update sequence and released before events are emitted.
func (s *Service) Transfer(ctx context.Context, from, to uuid.UUID, amount int64, reason string) (TransferResult, error) {
	if !s.cfg.AllowTransfers {
		return TransferResult{}, ErrTransfersDisabled
	}

	if from == uuid.Nil || to == uuid.Nil {
		return TransferResult{}, ErrInvalidPlayer
	}

	if from == to {
		return TransferResult{}, ErrSelfTransfer
	}

	if amount <= 0 {
		return TransferResult{}, ErrInvalidAmount
	}

	tax := transferTax(amount, s.cfg.TransferTaxPercent)

	var res TransferResult

	err := func() error {
		release := s.locks.LockAll(from.String(), to.String())
		defer release()

		sender, err := s.loadLocked(ctx, from, "")
		if err != nil {
			return err
		}

		// Fast local check against the cached balance. The store transaction
		// is still the authoritative check; this only avoids a round trip.
		if sender.Coins < amount {
			return players.ErrInsufficientFunds
		}

		receiver, err := s.loadLocked(ctx, to, "")
		if err != nil {
			return err
		}

		res, err = s.store.ExecuteTransfer(ctx, from, to, amount, tax, s.cfg.MaxCoins, reason)
		if err != nil {
			return err
		}

		now := s.now()

		sender.Coins = res.SenderBalance
		sender.LastSeen = now
		s.cache.put(sender)

		receiver.Coins = res.ReceiverBalance
		receiver.LastSeen = now
		s.cache.put(receiver)

		s.lb.Invalidate()

		return nil
	}()
	if err != nil {
		return TransferResult{}, err
	}

	occurred := s.now()

	s.publish(ctx, events.BalanceChanged{
		PlayerID:     from,
		Kind:         players.KindCoins,
		Delta:        -res.Amount,
		BalanceAfter: res.SenderBalance,
		Reason:       reason,
		OccurredAt:   occurred,
	})
	// A fully taxed transfer leaves the receiver untouched: no audit row is
	// written for them, so no event is emitted either.
	if res.Net > 0 {
		s.publish(ctx, events.BalanceChanged{
			PlayerID:     to,
			Kind:         players.KindCoins,
			Delta:        res.Net,
			BalanceAfter: res.ReceiverBalance,
			Reason:       reason,
			OccurredAt:   occurred,
		})
	}

	return res, nil
}

// transferTax is round-half-up(amount * percent / 100) clamped to
// [0, amount]. Decimal arithmetic keeps the rounding exact for percentages
// like 0.1 that have no binary representation.
func transferTax(amount int64, percent float64) int64 {
	if percent <= 0 {
		return 0
	}

	tax := decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	if tax < 0 {
		return 0
	}

	if tax > amount {
		return amount
	}

	return tax
}

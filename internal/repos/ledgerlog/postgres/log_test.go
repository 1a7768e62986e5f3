package ledgerlog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/infra/pgtestutil"
	"github.com/pixelforge/coinledger/internal/repos/ledgerlog"
)

func TestLog_Insert(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	owner := uuid.New()

	_, err := db.Exec(`
		INSERT INTO players (id, display_name, coins, tokens)
		VALUES ($1, 'alex', 100, 0)
	`, owner)
	if err != nil {
		t.Fatalf("seed player: %v", err)
	}

	repo := New(db)

	insert := func(rec ledgerlog.Record) error {
		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			t.Fatalf("begin tx: %v", err)
		}

		err = repo.Insert(tx, rec)
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		if cerr := tx.Commit(); cerr != nil {
			t.Fatalf("commit: %v", cerr)
		}
		return nil
	}

	err = insert(ledgerlog.Record{
		OwnerID:      owner,
		Kind:         ledgerlog.KindCoinsAdd,
		Amount:       50,
		BalanceAfter: 150,
		Reason:       "quest_reward",
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	var (
		kind         string
		amount       int64
		balanceAfter int64
		reason       sql.NullString
	)

	err = db.QueryRow(`
		SELECT kind, amount, balance_after, reason
		FROM ledger_log
		WHERE owner_id = $1
	`, owner).Scan(&kind, &amount, &balanceAfter, &reason)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if kind != string(ledgerlog.KindCoinsAdd) || amount != 50 || balanceAfter != 150 {
		t.Fatalf("record mismatch: kind=%s amount=%d after=%d", kind, amount, balanceAfter)
	}

	if !reason.Valid || reason.String != "quest_reward" {
		t.Fatalf("reason mismatch: %+v", reason)
	}

	// Records must belong to a known player.
	err = insert(ledgerlog.Record{
		OwnerID:      uuid.New(),
		Kind:         ledgerlog.KindCoinsAdd,
		Amount:       1,
		BalanceAfter: 1,
	})
	if err == nil {
		t.Fatal("expected FK violation for unknown owner")
	}
}

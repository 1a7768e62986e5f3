package ledgerlog

import (
	"database/sql"
	"fmt"

	"github.com/pixelforge/coinledger/internal/repos/ledgerlog"
)

var _ ledgerlog.Log = (*logRepo)(nil)

type logRepo struct{ db *sql.DB }

func New(db *sql.DB) *logRepo {
	return &logRepo{db: db}
}

// Insert appends an audit record inside the caller's transaction, so a record
// commits with the balance change it documents or not at all.
func (r *logRepo) Insert(tx *sql.Tx, rec ledgerlog.Record) error {
	_, err := tx.Exec(`
		INSERT INTO ledger_log (owner_id, kind, amount, balance_after, reason)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.OwnerID, rec.Kind, rec.Amount, rec.BalanceAfter, rec.Reason)
	if err != nil {
		return fmt.Errorf("insert ledger record: %w", err)
	}

	return nil
}

package ledgerlog

import (
	"database/sql"

	"github.com/google/uuid"
)

// Entry kinds mirror the mutation that produced the record.
const (
	KindCoinsAdd     = "coins_add"
	KindCoinsRemove  = "coins_remove"
	KindTokensAdd    = "tokens_add"
	KindTokensRemove = "tokens_remove"
	KindTransfer     = "transfer"
)

// Record is one append-only audit row. Amount is always a positive magnitude;
// the kind carries the direction.
type Record struct {
	OwnerID      uuid.UUID
	Kind         string
	Amount       int64
	BalanceAfter int64
	Reason       string
}

type Log interface {
	Insert(tx *sql.Tx, rec Record) error
}

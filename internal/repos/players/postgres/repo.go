package players

import (
	"database/sql"
	"fmt"

	"github.com/pixelforge/coinledger/internal/repos/players"
)

type playersRepo struct{ db *sql.DB }

func New(db *sql.DB) *playersRepo {
	return &playersRepo{db: db}
}

var _ players.Players = (*playersRepo)(nil)

// balanceColumn maps a Kind to its column name. Kinds are a closed enum, so
// interpolating the result into SQL is safe.
func balanceColumn(kind players.Kind) (string, error) {
	switch kind {
	case players.KindCoins:
		return "coins", nil
	case players.KindTokens:
		return "tokens", nil
	default:
		return "", fmt.Errorf("%w: %q", players.ErrInvalidKind, kind)
	}
}

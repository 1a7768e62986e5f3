package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

// Rank is 1 + the number of players with a strictly greater balance, read
// straight from the table so it always reflects committed state. Missing rows
// and non-positive balances report ErrNotRanked rather than a sentinel rank.
func (r *playersRepo) Rank(ctx context.Context, id uuid.UUID, kind players.Kind) (int, error) {
	col, err := balanceColumn(kind)
	if err != nil {
		return 0, err
	}

	var (
		balance int64
		rank    int
	)

	err = r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT p.%s,
		       1 + (SELECT count(*) FROM players o WHERE o.%s > p.%s)
		FROM players p
		WHERE p.id = $1
	`, col, col, col), id).Scan(&balance, &rank)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, players.ErrNotRanked
		}

		return 0, fmt.Errorf("rank: %w", err)
	}

	if balance <= 0 {
		return 0, players.ErrNotRanked
	}

	return rank, nil
}

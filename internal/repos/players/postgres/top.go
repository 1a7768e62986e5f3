package players

import (
	"context"
	"fmt"

	"github.com/pixelforge/coinledger/internal/repos/players"
)

func (r *playersRepo) TopBalances(ctx context.Context, kind players.Kind, limit int) ([]players.RankedBalance, error) {
	col, err := balanceColumn(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, display_name, %s
		FROM players
		WHERE %s > 0
		ORDER BY %s DESC, id
		LIMIT $1
	`, col, col, col), limit)
	if err != nil {
		return nil, fmt.Errorf("top balances: %w", err)
	}
	defer rows.Close()

	var out []players.RankedBalance

	for rows.Next() {
		var rb players.RankedBalance

		err = rows.Scan(&rb.ID, &rb.DisplayName, &rb.Amount)
		if err != nil {
			return nil, fmt.Errorf("scan ranked balance: %w", err)
		}

		out = append(out, rb)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate ranked balances: %w", err)
	}

	return out, nil
}

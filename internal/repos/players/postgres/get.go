package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

func (r *playersRepo) Get(ctx context.Context, id uuid.UUID) (players.Player, error) {
	var p players.Player

	err := r.db.QueryRowContext(ctx, `
		SELECT id, display_name, coins, tokens, first_seen, last_seen, total_playtime
		FROM players
		WHERE id = $1
	`, id).Scan(&p.ID, &p.DisplayName, &p.Coins, &p.Tokens, &p.FirstSeen, &p.LastSeen, &p.TotalPlaytime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return players.Player{}, players.ErrPlayerNotFound
		}

		return players.Player{}, fmt.Errorf("get player: %w", err)
	}

	return p, nil
}

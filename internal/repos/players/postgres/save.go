package players

import (
	"context"
	"fmt"

	"github.com/pixelforge/coinledger/internal/repos/players"
)

// Save persists session metadata. Balances are deliberately not written here:
// they are only ever changed through the transactional balance paths, and a
// stale cached copy must not overwrite a committed balance.
func (r *playersRepo) Save(ctx context.Context, p players.Player) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE players
		SET display_name = $2, last_seen = $3, total_playtime = $4
		WHERE id = $1
	`, p.ID, p.DisplayName, p.LastSeen, p.TotalPlaytime)
	if err != nil {
		return fmt.Errorf("save player: %w", err)
	}

	return nil
}

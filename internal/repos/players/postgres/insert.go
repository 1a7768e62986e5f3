package players

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

// Insert creates the player's row. A duplicate id is treated as success so
// concurrent first-access retries stay idempotent.
func (r *playersRepo) Insert(tx *sql.Tx, p players.Player) error {
	_, err := tx.Exec(`
		INSERT INTO players (id, display_name, coins, tokens, first_seen, last_seen, total_playtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.DisplayName, p.Coins, p.Tokens, p.FirstSeen, p.LastSeen, p.TotalPlaytime)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil
		}

		return fmt.Errorf("insert player: %w", err)
	}

	return nil
}

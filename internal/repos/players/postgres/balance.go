package players

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

func (r *playersRepo) LockAndGetBalance(tx *sql.Tx, id uuid.UUID, kind players.Kind) (int64, error) {
	col, err := balanceColumn(kind)
	if err != nil {
		return 0, err
	}

	var balance int64

	err = tx.QueryRow(fmt.Sprintf(`
		SELECT %s
		FROM players
		WHERE id = $1
		FOR UPDATE
	`, col), id).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, players.ErrPlayerNotFound
		}

		return 0, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}

func (r *playersRepo) SetBalance(tx *sql.Tx, id uuid.UUID, kind players.Kind, balance int64) error {
	col, err := balanceColumn(kind)
	if err != nil {
		return err
	}

	_, err = tx.Exec(fmt.Sprintf(`
		UPDATE players
		SET %s = $2, last_seen = now()
		WHERE id = $1
	`, col), id, balance)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	return nil
}

func (r *playersRepo) IncreaseBalance(tx *sql.Tx, id uuid.UUID, kind players.Kind, amount int64) error {
	col, err := balanceColumn(kind)
	if err != nil {
		return err
	}

	res, err := tx.Exec(fmt.Sprintf(`
		UPDATE players
		SET %s = %s + $2
		WHERE id = $1
	`, col, col), id, amount)
	if err != nil {
		return fmt.Errorf("increase balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return players.ErrPlayerNotFound
	}

	return nil
}

func (r *playersRepo) DecreaseBalance(tx *sql.Tx, id uuid.UUID, kind players.Kind, amount int64) error {
	col, err := balanceColumn(kind)
	if err != nil {
		return err
	}

	res, err := tx.Exec(fmt.Sprintf(`
		UPDATE players
		SET %s = %s - $2
		WHERE id = $1
		  AND %s >= $2
	`, col, col, col), id, amount)
	if err != nil {
		return fmt.Errorf("decrease balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return players.ErrInsufficientFunds
	}

	return nil
}

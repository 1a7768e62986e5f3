package players

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pixelforge/coinledger/internal/infra/pgtestutil"
	"github.com/pixelforge/coinledger/internal/repos/players"
)

func seedPlayer(t *testing.T, db *sql.DB, id uuid.UUID, name string, coins, tokens int64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO players (id, display_name, coins, tokens)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET coins = EXCLUDED.coins, tokens = EXCLUDED.tokens
	`, id, name, coins, tokens)
	if err != nil {
		t.Fatalf("seed player %s: %v", id, err)
	}
}

func TestPlayers_Get(t *testing.T) {
	t.Parallel()

	known := uuid.New()

	tests := []struct {
		name    string
		seed    func(t *testing.T, db *sql.DB)
		id      uuid.UUID
		want    players.Player
		wantErr error
	}{
		{
			name: "existing_player",
			seed: func(t *testing.T, db *sql.DB) {
				seedPlayer(t, db, known, "steve", 1_000, 25)
			},
			id: known,
			want: players.Player{
				ID:          known,
				DisplayName: "steve",
				Coins:       1_000,
				Tokens:      25,
			},
		},
		{
			name:    "never_observed",
			seed:    func(t *testing.T, db *sql.DB) {},
			id:      uuid.New(),
			wantErr: players.ErrPlayerNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			tt.seed(t, db)

			repo := New(db)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			got, err := repo.Get(ctx, tt.id)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("get: %v", err)
			}

			if got.ID != tt.want.ID || got.DisplayName != tt.want.DisplayName ||
				got.Coins != tt.want.Coins || got.Tokens != tt.want.Tokens {
				t.Fatalf("player mismatch: want %+v, got %+v", tt.want, got)
			}

			if got.FirstSeen.IsZero() || got.LastSeen.IsZero() {
				t.Fatalf("timestamps not populated: %+v", got)
			}
		})
	}
}

func TestPlayers_Insert_DuplicateIsSuccess(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	id := uuid.New()
	now := time.Now().UTC()

	p := players.Player{
		ID:          id,
		DisplayName: "steve",
		Coins:       100,
		FirstSeen:   now,
		LastSeen:    now,
	}

	insert := func() {
		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			t.Fatalf("begin tx: %v", err)
		}
		defer func() { _ = tx.Rollback() }()

		err = repo.Insert(tx, p)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}

		err = tx.Commit()
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	insert()

	// Bump the balance so we can prove the second insert does not reset it.
	_, err := db.Exec(`UPDATE players SET coins = 500 WHERE id = $1`, id)
	if err != nil {
		t.Fatalf("bump balance: %v", err)
	}

	insert()

	var (
		count int
		coins int64
	)

	err = db.QueryRow(`SELECT count(*), max(coins) FROM players WHERE id = $1`, id).Scan(&count, &coins)
	if err != nil {
		t.Fatalf("count rows: %v", err)
	}

	if count != 1 {
		t.Fatalf("want 1 row, got %d", count)
	}

	if coins != 500 {
		t.Fatalf("duplicate insert must not overwrite balances: got %d", coins)
	}
}

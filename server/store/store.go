// Package store mirrors match results into Postgres when DATABASE_URL is
// set. It is strictly supplementary: the JSON match log remains the source
// of truth and every store failure is logged and swallowed by the caller.
package store

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func Open(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close() { db.Pool.Close() }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// InsertMatch writes a match row plus its seat assignments atomically and
// returns the match id.
func (db *DB) InsertMatch(ctx context.Context, game, outcome, winner string, latencySeconds float64, seats map[string]string) (int64, error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // safe if already committed

	var winnerParam any
	if winner != "" {
		winnerParam = winner
	}
	var id int64
	err = tx.QueryRow(ctx, `
        INSERT INTO matches(game, outcome, winner, latency_seconds)
        VALUES ($1,$2,$3,$4)
        RETURNING id
    `, game, outcome, winnerParam, latencySeconds).Scan(&id)
	if err != nil {
		return 0, err
	}

	for seat, player := range seats {
		if _, err := tx.Exec(ctx, `
            INSERT INTO match_seats(match_id, seat, player)
            VALUES ($1,$2,$3)
        `, id, seat, player); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit(ctx)
}

// BumpTally increments a player's career counters, creating the row on first
// sight.
func (db *DB) BumpTally(ctx context.Context, player string, wins, losses, ties int) error {
	_, err := db.Exec(ctx, `
        INSERT INTO player_tallies(player, wins, losses, ties)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (player) DO UPDATE
           SET wins   = player_tallies.wins   + EXCLUDED.wins,
               losses = player_tallies.losses + EXCLUDED.losses,
               ties   = player_tallies.ties   + EXCLUDED.ties,
               updated_at = now()
    `, player, wins, losses, ties)
	return err
}

// TallyRow is one player's mirrored career record.
type TallyRow struct {
	Player string
	Wins   int
	Losses int
	Ties   int
}

func (db *DB) Tallies(ctx context.Context) ([]TallyRow, error) {
	rows, err := db.Query(ctx, `
        SELECT player, wins, losses, ties
          FROM player_tallies
         ORDER BY wins DESC, player
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TallyRow
	for rows.Next() {
		var t TallyRow
		if err := rows.Scan(&t.Player, &t.Wins, &t.Losses, &t.Ties); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

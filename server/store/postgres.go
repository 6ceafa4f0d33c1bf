package store

import (
	"context"
	"embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql schema_sqlite.sql
var schema embed.FS

type DB struct{ *pgxpool.Pool }

func OpenPostgres(dsn string) (*DB, error) {
	p, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close() error                   { db.Pool.Close(); return nil }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func (db *DB) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

const runColumns = `id, created_at, seed, hands, trials, workers, dealer_stands_on,
	wins, losses, ties, player_busts, dealer_busts, duration_ms, stopped`

func (db *DB) InsertRun(ctx context.Context, r *Run) error {
	prepare(r)
	_, err := db.Exec(ctx, `
		INSERT INTO sim_runs(`+runColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, r.ID, r.CreatedAt, int64(r.Seed), r.Hands, r.Trials, r.Workers, r.DealerStandsOn,
		r.Wins, r.Losses, r.Ties, r.PlayerBusts, r.DealerBusts, r.DurationMS, r.Stopped)
	return err
}

func scanPGRun(row pgx.Row) (Run, error) {
	var r Run
	var seed int64
	err := row.Scan(&r.ID, &r.CreatedAt, &seed, &r.Hands, &r.Trials, &r.Workers, &r.DealerStandsOn,
		&r.Wins, &r.Losses, &r.Ties, &r.PlayerBusts, &r.DealerBusts, &r.DurationMS, &r.Stopped)
	r.Seed = uint64(seed)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, err
}

func (db *DB) GetRun(ctx context.Context, id string) (Run, error) {
	r, err := scanPGRun(db.QueryRow(ctx, `SELECT `+runColumns+` FROM sim_runs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return r, err
}

// Newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.Query(ctx, `
		SELECT `+runColumns+`
		  FROM sim_runs
		 ORDER BY created_at DESC, id
		 LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		r, err := scanPGRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

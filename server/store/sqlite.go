package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteDB keeps runs in a local SQLite file.
type SQLiteDB struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	return &SQLiteDB{db: db}, nil
}

func (s *SQLiteDB) Close() error                   { return s.db.Close() }
func (s *SQLiteDB) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteDB) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema_sqlite.sql")
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(string(sqlBytes), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLiteDB) InsertRun(ctx context.Context, r *Run) error {
	prepare(r)
	stopped := 0
	if r.Stopped {
		stopped = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sim_runs(`+runColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, r.ID, r.CreatedAt.UnixMilli(), int64(r.Seed), r.Hands, r.Trials, r.Workers, r.DealerStandsOn,
		r.Wins, r.Losses, r.Ties, r.PlayerBusts, r.DealerBusts, r.DurationMS, stopped)
	return err
}

type scanner interface{ Scan(dest ...any) error }

func scanSQLiteRun(row scanner) (Run, error) {
	var r Run
	var created, seed int64
	var stopped int
	err := row.Scan(&r.ID, &created, &seed, &r.Hands, &r.Trials, &r.Workers, &r.DealerStandsOn,
		&r.Wins, &r.Losses, &r.Ties, &r.PlayerBusts, &r.DealerBusts, &r.DurationMS, &stopped)
	r.CreatedAt = time.UnixMilli(created).UTC()
	r.Seed = uint64(seed)
	r.Stopped = stopped != 0
	return r, err
}

func (s *SQLiteDB) GetRun(ctx context.Context, id string) (Run, error) {
	r, err := scanSQLiteRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM sim_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return r, err
}

func (s *SQLiteDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		  FROM sim_runs
		 ORDER BY created_at DESC, id
		 LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		r, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("store: run not found")
	ErrUnsupportedDSN = errors.New("store: unsupported DATABASE_URL scheme")
)

// Run is the summary of one batch simulation. Individual hands are not kept.
type Run struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Seed           uint64    `json:"seed"`
	Hands          int       `json:"hands"`
	Trials         int       `json:"trials"`
	Workers        int       `json:"workers"`
	DealerStandsOn int       `json:"dealer_stands_on"`
	Wins           int       `json:"wins"`
	Losses         int       `json:"losses"`
	Ties           int       `json:"ties"`
	PlayerBusts    int       `json:"player_busts"`
	DealerBusts    int       `json:"dealer_busts"`
	DurationMS     int64     `json:"duration_ms"`
	Stopped        bool      `json:"stopped"`
}

type Store interface {
	Migrate(ctx context.Context) error
	InsertRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open picks a backend from the DSN scheme: postgres:// and postgresql://
// go to Postgres, sqlite://path and file: URIs to SQLite.
func Open(dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := OpenPostgres(dsn)
		if err != nil {
			return nil, err
		}
		return db, nil
	case strings.HasPrefix(dsn, "sqlite://"), strings.HasPrefix(dsn, "file:"):
		db, err := OpenSQLite(strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedDSN, redact(dsn))
}

// prepare fills in the id and timestamp of a run about to be inserted.
func prepare(r *Run) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
}

const defaultListLimit = 50

func clampLimit(n int) int {
	if n <= 0 || n > 500 {
		return defaultListLimit
	}
	return n
}

func redact(dsn string) string {
	if i := strings.Index(dsn, "@"); i >= 0 {
		if j := strings.Index(dsn, "://"); j >= 0 && j < i {
			return dsn[:j+3] + "***" + dsn[i:]
		}
	}
	return dsn
}

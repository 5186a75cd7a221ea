package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/schema"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

var (
	_ transition.Store = (*Store)(nil)
	_ history.Storage  = (*Store)(nil)
	_ history.Counter  = (*Store)(nil)
)

// timeLayout is fixed width so that text comparison orders like time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements the transition catalog, the grant pivot and the history
// table on a single SQLite database.
type Store struct {
	db     *sql.DB
	tables schema.Tables
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTables overrides the default table names.
func WithTables(t schema.Tables) Option {
	return func(s *Store) {
		s.tables = t
	}
}

// WithClock sets the time source for grant timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New wraps an open database. It panics on a nil db and fails on invalid table names.
func New(db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		panic("sqlitestore: db cannot be nil")
	}
	s := &Store{db: db, tables: schema.DefaultTables(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.tables = s.tables.WithDefaults()
	if err := s.tables.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Open opens a SQLite database with foreign keys enforced.
// In-memory databases are limited to one connection so every query sees the same data.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	if !strings.Contains(dsn, "foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Join(ErrFailedToOpen, err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(ErrFailedToOpen, err)
	}
	return db, nil
}

// Migrate applies the schema using the store's table names.
func (s *Store) Migrate(ctx context.Context, log schema.Logger) error {
	return schema.Migrate(ctx, s.db, schema.SQLite, s.tables, log)
}

// DB exposes the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

func sqliteCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

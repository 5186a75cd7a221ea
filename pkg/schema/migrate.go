package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// Logger is the logging surface used for migration output.
// *slog.Logger satisfies it.
type Logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MigrationStatus describes a single schema version.
type MigrationStatus struct {
	Version   int64
	Applied   bool
	AppliedAt time.Time
}

// Migrate applies every pending schema version.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, tables Tables, log Logger) error {
	p, err := newProvider(db, dialect, tables, log)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	results, err := p.Up(ctx)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "schema migration applied",
			"version", r.Source.Version,
			"duration", r.Duration,
		)
	}
	return nil
}

// Rollback reverts every applied schema version.
func Rollback(ctx context.Context, db *sql.DB, dialect Dialect, tables Tables, log Logger) error {
	p, err := newProvider(db, dialect, tables, log)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	results, err := p.DownTo(ctx, 0)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "schema migration reverted", "version", r.Source.Version)
	}
	return nil
}

// Status reports the state of each known schema version.
func Status(ctx context.Context, db *sql.DB, dialect Dialect, tables Tables, log Logger) ([]MigrationStatus, error) {
	p, err := newProvider(db, dialect, tables, log)
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version:   s.Source.Version,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// The provider borrows db; Close is never called on it since that would close db.
func newProvider(db *sql.DB, dialect Dialect, tables Tables, log Logger) (*goose.Provider, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	tables = tables.WithDefaults()
	if err := tables.Validate(); err != nil {
		return nil, err
	}

	var gd database.Dialect
	switch dialect {
	case Postgres:
		gd = database.DialectPostgres
	case SQLite:
		gd = database.DialectSQLite3
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedDialect, dialect)
	}

	store, err := database.NewStore(gd, tables.Migrations)
	if err != nil {
		return nil, err
	}

	ms, err := migrations(dialect, tables)
	if err != nil {
		return nil, err
	}
	gms := make([]*goose.Migration, 0, len(ms))
	for _, m := range ms {
		gms = append(gms, goose.NewGoMigration(m.version,
			&goose.GoFunc{RunTx: execAll(m.up)},
			&goose.GoFunc{RunTx: execAll(m.down)},
		))
	}

	return goose.NewProvider("", db, nil,
		goose.WithStore(store),
		goose.WithGoMigrations(gms...),
		goose.WithDisableGlobalRegistry(true),
		goose.WithLogger(newGooseLogger(log)),
	)
}

func execAll(stmts []string) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	}
}

// gooseLogger routes goose's Printf-style output into the structured logger.
type gooseLogger struct {
	log Logger
}

func newGooseLogger(log Logger) goose.Logger {
	return &gooseLogger{log: log}
}

func (a *gooseLogger) Fatalf(format string, v ...any) {
	a.log.ErrorContext(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (a *gooseLogger) Printf(format string, v ...any) {
	a.log.InfoContext(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

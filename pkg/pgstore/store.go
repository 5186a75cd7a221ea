package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/schema"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

var (
	_ transition.Store = (*Store)(nil)
	_ history.Storage  = (*Store)(nil)
	_ history.Counter  = (*Store)(nil)
)

// DB is the subset of pgx shared by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements the transition catalog, the grant pivot and the history
// table on PostgreSQL.
type Store struct {
	db     DB
	tables schema.Tables
	q      quoted
}

// quoted holds sanitized table identifiers.
type quoted struct {
	transitions string
	grants      string
	history     string
}

// Option configures a Store.
type Option func(*Store)

// WithTables overrides the default table names.
func WithTables(t schema.Tables) Option {
	return func(s *Store) {
		s.tables = t
	}
}

// New wraps a pool, connection or transaction. It panics on a nil db and
// fails on invalid table names.
func New(db DB, opts ...Option) (*Store, error) {
	if db == nil {
		panic("pgstore: db cannot be nil")
	}
	s := &Store{db: db, tables: schema.DefaultTables()}
	for _, opt := range opts {
		opt(s)
	}
	s.tables = s.tables.WithDefaults()
	if err := s.tables.Validate(); err != nil {
		return nil, err
	}
	s.q = quoted{
		transitions: pgx.Identifier{s.tables.Transitions}.Sanitize(),
		grants:      pgx.Identifier{s.tables.Grants}.Sanitize(),
		history:     pgx.Identifier{s.tables.History}.Sanitize(),
	}
	return s, nil
}

// DB exposes the underlying connection, e.g. the transaction inside WithTx.
func (s *Store) DB() DB { return s.db }

// Tables returns the table names in use.
func (s *Store) Tables() schema.Tables { return s.tables }

// WithTx runs fn with a Store bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise, so a state change and
// its history record can be written atomically.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Join(ErrTxFailed, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	txStore := &Store{db: tx, tables: s.tables, q: s.q}
	if err = fn(txStore); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return errors.Join(ErrTxFailed, err)
	}
	return nil
}

// placeholders tracks positional arguments for dynamically built queries.
type placeholders struct {
	args []any
}

func (p *placeholders) add(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

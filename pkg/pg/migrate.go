package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrymomot/statekit/pkg/schema"
)

// Migrate brings the statekit tables up to date on the pool's database.
// goose works on database/sql, so the pool is bridged through pgx's stdlib adapter.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables schema.Tables, log schema.Logger) error {
	return withDB(ctx, pool, log, func(db *sql.DB) error {
		return schema.Migrate(ctx, db, schema.Postgres, tables, log)
	})
}

// Rollback drops every statekit table.
func Rollback(ctx context.Context, pool *pgxpool.Pool, tables schema.Tables, log schema.Logger) error {
	return withDB(ctx, pool, log, func(db *sql.DB) error {
		return schema.Rollback(ctx, db, schema.Postgres, tables, log)
	})
}

// Status reports which schema versions are applied.
func Status(ctx context.Context, pool *pgxpool.Pool, tables schema.Tables, log schema.Logger) ([]schema.MigrationStatus, error) {
	var out []schema.MigrationStatus
	err := withDB(ctx, pool, log, func(db *sql.DB) error {
		var err error
		out, err = schema.Status(ctx, db, schema.Postgres, tables, log)
		return err
	})
	return out, err
}

func withDB(ctx context.Context, pool *pgxpool.Pool, log schema.Logger, fn func(*sql.DB) error) error {
	if pool == nil {
		return errors.Join(ErrFailedToApplyMigrations, ErrNilPool)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close database connection", "error", err)
		}
	}(db)
	return fn(db)
}

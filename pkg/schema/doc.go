// Package schema owns the relational layout used by the SQL stores: the
// transition catalog, the principal pivot table and the history table.
//
// Table names are configurable through [Tables] (loaded from the environment
// with caarlos0/env) and validated as plain identifiers before they are
// interpolated into DDL or queries. Both PostgreSQL and SQLite are supported.
//
// Migrations are embedded Go migrations run by a goose v3 Provider with its
// own version table, so they never collide with an application's own goose
// migrations:
//
//	db, _ := sql.Open("sqlite", "file:app.db?_pragma=foreign_keys(1)")
//	if err := schema.Migrate(ctx, db, schema.SQLite, schema.DefaultTables(), slog.Default()); err != nil {
//		return err
//	}
package schema

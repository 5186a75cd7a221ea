package schema_test

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/statekit/pkg/schema"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

var discard = slog.New(slog.DiscardHandler)

func TestTables(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, schema.DefaultTables().Validate())
	})

	t.Run("empty names are filled", func(t *testing.T) {
		t.Parallel()
		tables := schema.Tables{History: "audit_trail"}.WithDefaults()
		assert.Equal(t, "audit_trail", tables.History)
		assert.Equal(t, "transitions", tables.Transitions)
		assert.Equal(t, "model_has_transitions", tables.Grants)
		assert.Equal(t, "statekit_migrations", tables.Migrations)
	})

	t.Run("rejects non identifiers", func(t *testing.T) {
		t.Parallel()
		tables := schema.DefaultTables()
		tables.Transitions = "transitions; DROP TABLE users"
		assert.ErrorIs(t, tables.Validate(), schema.ErrInvalidTableName)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		t.Parallel()
		tables := schema.DefaultTables()
		tables.History = tables.Transitions
		assert.ErrorIs(t, tables.Validate(), schema.ErrInvalidTableName)
	})
}

func TestParseDialect(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]schema.Dialect{
		"postgres": schema.Postgres,
		"pgx":      schema.Postgres,
		"sqlite":   schema.SQLite,
		"SQLite3":  schema.SQLite,
	} {
		got, err := schema.ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := schema.ParseDialect("mysql")
	assert.ErrorIs(t, err, schema.ErrUnsupportedDialect)
}

func TestStatements(t *testing.T) {
	t.Parallel()

	stmts, err := schema.Statements(schema.Postgres, schema.Tables{})
	require.NoError(t, err)
	require.NotEmpty(t, stmts)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS transitions")
	assert.Contains(t, stmts[0], "UUID")

	var joined string
	for _, s := range stmts {
		joined += s
	}
	assert.Contains(t, joined, "ON DELETE CASCADE")
	assert.Contains(t, joined, "JSONB")
	assert.Contains(t, joined, "transitions_triple_idx")

	_, err = schema.Statements("oracle", schema.Tables{})
	assert.ErrorIs(t, err, schema.ErrUnsupportedDialect)
}

func TestMigrateSQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates tables and is idempotent", func(t *testing.T) {
		t.Parallel()
		db := openSQLite(t)
		tables := schema.DefaultTables()

		require.NoError(t, schema.Migrate(ctx, db, schema.SQLite, tables, discard))
		require.NoError(t, schema.Migrate(ctx, db, schema.SQLite, tables, discard))

		assert.True(t, tableExists(t, db, tables.Transitions))
		assert.True(t, tableExists(t, db, tables.Grants))
		assert.True(t, tableExists(t, db, tables.History))
		assert.True(t, tableExists(t, db, tables.Migrations))

		statuses, err := schema.Status(ctx, db, schema.SQLite, tables, discard)
		require.NoError(t, err)
		require.Len(t, statuses, 2)
		for _, s := range statuses {
			assert.True(t, s.Applied, "version %d", s.Version)
		}
	})

	t.Run("custom table names", func(t *testing.T) {
		t.Parallel()
		db := openSQLite(t)
		tables := schema.Tables{
			Transitions: "wf_transitions",
			History:     "wf_history",
			Grants:      "wf_grants",
			Migrations:  "wf_versions",
		}

		require.NoError(t, schema.Migrate(ctx, db, schema.SQLite, tables, discard))
		assert.True(t, tableExists(t, db, "wf_transitions"))
		assert.True(t, tableExists(t, db, "wf_history"))
		assert.False(t, tableExists(t, db, "transitions"))
	})

	t.Run("unique triple", func(t *testing.T) {
		t.Parallel()
		db := openSQLite(t)
		require.NoError(t, schema.Migrate(ctx, db, schema.SQLite, schema.DefaultTables(), discard))

		insert := `INSERT INTO transitions (id, model_type, from_state, to_state) VALUES (?, 'payment', 'pending', 'approved')`
		_, err := db.Exec(insert, "a")
		require.NoError(t, err)
		_, err = db.Exec(insert, "b")
		assert.Error(t, err)
	})

	t.Run("grants cascade with their transition", func(t *testing.T) {
		t.Parallel()
		db := openSQLite(t)
		require.NoError(t, schema.Migrate(ctx, db, schema.SQLite, schema.DefaultTables(), discard))

		_, err := db.Exec(`INSERT INTO transitions (id, model_type, from_state, to_state) VALUES ('t1', 'payment', 'pending', 'approved')`)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO model_has_transitions (transition_id, model_type, model_id) VALUES ('t1', 'user', 'u1')`)
		require.NoError(t, err)
		_, err = db.Exec(`DELETE FROM transitions WHERE id = 't1'`)
		require.NoError(t, err)

		var n int
		require.NoError(t, db.QueryRow(`SELECT count(*) FROM model_has_transitions`).Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("rollback drops tables", func(t *testing.T) {
		t.Parallel()
		db := openSQLite(t)
		tables := schema.DefaultTables()
		require.NoError(t, schema.Migrate(ctx, db, schema.SQLite, tables, discard))
		require.NoError(t, schema.Rollback(ctx, db, schema.SQLite, tables, discard))

		assert.False(t, tableExists(t, db, tables.Transitions))
		assert.False(t, tableExists(t, db, tables.History))

		statuses, err := schema.Status(ctx, db, schema.SQLite, tables, discard)
		require.NoError(t, err)
		for _, s := range statuses {
			assert.False(t, s.Applied)
		}
	})

	t.Run("invalid tables", func(t *testing.T) {
		t.Parallel()
		db := openSQLite(t)
		err := schema.Migrate(ctx, db, schema.SQLite, schema.Tables{Transitions: "bad name"}, discard)
		assert.ErrorIs(t, err, schema.ErrFailedToApplyMigrations)
		assert.ErrorIs(t, err, schema.ErrInvalidTableName)
	})
}

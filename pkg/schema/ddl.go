package schema

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL flavour of the generated DDL.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect maps driver names to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnsupportedDialect, name)
	}
}

type columnTypes struct {
	id        string
	timestamp string
	json      string
	now       string
}

func typesFor(d Dialect) (columnTypes, error) {
	switch d {
	case Postgres:
		return columnTypes{id: "UUID", timestamp: "TIMESTAMPTZ", json: "JSONB", now: "now()"}, nil
	case SQLite:
		return columnTypes{id: "TEXT", timestamp: "TEXT", json: "TEXT", now: "(strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))"}, nil
	default:
		return columnTypes{}, fmt.Errorf("%w: '%s'", ErrUnsupportedDialect, d)
	}
}

// migration is a versioned pair of statement lists.
type migration struct {
	version int64
	up      []string
	down    []string
}

// migrations renders every schema version for the dialect and table names.
func migrations(d Dialect, t Tables) ([]migration, error) {
	ct, err := typesFor(d)
	if err != nil {
		return nil, err
	}

	catalog := migration{
		version: 1,
		up: []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	id %[2]s PRIMARY KEY,
	model_type TEXT NOT NULL,
	from_state TEXT NOT NULL,
	to_state TEXT NOT NULL,
	created_at %[3]s NOT NULL DEFAULT %[4]s,
	updated_at %[3]s NOT NULL DEFAULT %[4]s
)`, t.Transitions, ct.id, ct.timestamp, ct.now),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_triple_idx ON %[1]s (model_type, from_state, to_state)`, t.Transitions),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	transition_id %[3]s NOT NULL REFERENCES %[2]s (id) ON DELETE CASCADE,
	model_type TEXT NOT NULL,
	model_id TEXT NOT NULL,
	created_at %[4]s NOT NULL DEFAULT %[5]s,
	updated_at %[4]s NOT NULL DEFAULT %[5]s,
	PRIMARY KEY (transition_id, model_type, model_id)
)`, t.Grants, t.Transitions, ct.id, ct.timestamp, ct.now),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_principal_idx ON %[1]s (model_type, model_id)`, t.Grants),
		},
		down: []string{
			fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t.Grants),
			fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t.Transitions),
		},
	}

	history := migration{
		version: 2,
		up: []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	id %[2]s PRIMARY KEY,
	model_type TEXT NOT NULL,
	model_id TEXT NOT NULL,
	from_state TEXT NOT NULL,
	to_state TEXT NOT NULL,
	description TEXT NULL,
	custom_properties %[3]s NULL,
	created_by TEXT NULL,
	created_at %[4]s NOT NULL DEFAULT %[5]s,
	updated_at %[4]s NOT NULL DEFAULT %[5]s
)`, t.History, ct.id, ct.json, ct.timestamp, ct.now),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_model_idx ON %[1]s (model_type, model_id, created_at)`, t.History),
		},
		down: []string{
			fmt.Sprintf(`DROP TABLE IF EXISTS %s`, t.History),
		},
	}

	return []migration{catalog, history}, nil
}

// Statements returns the complete up DDL in apply order, e.g. for printing.
func Statements(d Dialect, t Tables) ([]string, error) {
	ms, err := migrations(d, t.WithDefaults())
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range ms {
		out = append(out, m.up...)
	}
	return out, nil
}

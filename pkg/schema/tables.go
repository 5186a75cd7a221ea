package schema

import (
	"errors"
	"fmt"
	"regexp"
)

// Tables holds the configurable table names.
type Tables struct {
	Transitions string `env:"TRANSITIONS_TABLE" envDefault:"transitions"`
	History     string `env:"TRANSITION_HISTORY_TABLE" envDefault:"transition_history"`
	Grants      string `env:"TRANSITIONS_PIVOT_TABLE" envDefault:"model_has_transitions"`
	Migrations  string `env:"MIGRATIONS_TABLE" envDefault:"statekit_migrations"`
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// DefaultTables returns the table names used when nothing is configured.
func DefaultTables() Tables {
	return Tables{
		Transitions: "transitions",
		History:     "transition_history",
		Grants:      "model_has_transitions",
		Migrations:  "statekit_migrations",
	}
}

// WithDefaults fills empty names with their defaults.
func (t Tables) WithDefaults() Tables {
	d := DefaultTables()
	if t.Transitions == "" {
		t.Transitions = d.Transitions
	}
	if t.History == "" {
		t.History = d.History
	}
	if t.Grants == "" {
		t.Grants = d.Grants
	}
	if t.Migrations == "" {
		t.Migrations = d.Migrations
	}
	return t
}

// Validate ensures every name is a plain SQL identifier and names are distinct.
// Table names are interpolated into statements, so this must hold before any query.
func (t Tables) Validate() error {
	names := []string{t.Transitions, t.History, t.Grants, t.Migrations}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if !identifier.MatchString(name) {
			return fmt.Errorf("%w: '%s'", ErrInvalidTableName, name)
		}
		if seen[name] {
			return fmt.Errorf("%w: '%s' used twice", ErrInvalidTableName, name)
		}
		seen[name] = true
	}
	return nil
}

var (
	ErrInvalidTableName        = errors.New("schema.invalid_table_name")
	ErrUnsupportedDialect      = errors.New("schema.unsupported_dialect")
	ErrFailedToApplyMigrations = errors.New("schema.failed_to_apply_migrations")
	ErrNilDB                   = errors.New("schema.nil_db")
)

package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/statekit/pkg/transition"
)

const transitionColumns = "id, model_type, from_state, to_state, created_at, updated_at"

func (s *Store) CreateTransition(ctx context.Context, t *transition.Transition) error {
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)`, s.tables.Transitions, transitionColumns)
	_, err := s.db.ExecContext(ctx, q,
		t.ID.String(), string(t.ModelType), t.FromState, t.ToState,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return transition.ErrDuplicateTransition
	}
	return err
}

func (s *Store) GetTransition(ctx context.Context, id uuid.UUID) (*transition.Transition, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, transitionColumns, s.tables.Transitions)
	t, err := scanTransition(s.db.QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, transition.ErrTransitionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTransitions(ctx context.Context, query transition.Query) ([]transition.Transition, error) {
	where, args := transitionFilter("", query)
	q := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY created_at, id`, transitionColumns, s.tables.Transitions, where)
	return s.queryTransitions(ctx, q, args...)
}

func (s *Store) DeleteTransition(ctx context.Context, id uuid.UUID) error {
	// Grants go with the row through ON DELETE CASCADE.
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.tables.Transitions)
	res, err := s.db.ExecContext(ctx, q, id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return transition.ErrTransitionNotFound
	}
	return nil
}

func (s *Store) AttachPrincipal(ctx context.Context, transitionID uuid.UUID, p transition.Principal) error {
	q := fmt.Sprintf(`INSERT INTO %s (transition_id, model_type, model_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (transition_id, model_type, model_id) DO NOTHING`, s.tables.Grants)
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, q, transitionID.String(), string(p.Type), p.ID, now, now)
	if isForeignKeyViolation(err) {
		return transition.ErrTransitionNotFound
	}
	return err
}

func (s *Store) DetachPrincipal(ctx context.Context, transitionID uuid.UUID, p transition.Principal) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE transition_id = ? AND model_type = ? AND model_id = ?`, s.tables.Grants)
	_, err := s.db.ExecContext(ctx, q, transitionID.String(), string(p.Type), p.ID)
	return err
}

func (s *Store) ListPrincipals(ctx context.Context, transitionID uuid.UUID) ([]transition.Principal, error) {
	q := fmt.Sprintf(`SELECT model_type, model_id FROM %s WHERE transition_id = ? ORDER BY created_at, model_type, model_id`, s.tables.Grants)
	rows, err := s.db.QueryContext(ctx, q, transitionID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]transition.Principal, 0)
	for rows.Next() {
		var p transition.Principal
		if err := rows.Scan(&p.Type, &p.ID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListGranted(ctx context.Context, query transition.Query, principals []transition.Principal) ([]transition.Transition, error) {
	if len(principals) == 0 {
		return []transition.Transition{}, nil
	}

	where, args := transitionFilter("t.", query)
	match := make([]string, 0, len(principals))
	for _, p := range principals {
		match = append(match, "(g.model_type = ? AND g.model_id = ?)")
		args = append(args, string(p.Type), p.ID)
	}
	exists := fmt.Sprintf(`EXISTS (SELECT 1 FROM %s g WHERE g.transition_id = t.id AND (%s))`,
		s.tables.Grants, strings.Join(match, " OR "))
	if where == "" {
		where = " WHERE " + exists
	} else {
		where += " AND " + exists
	}

	q := fmt.Sprintf(`SELECT t.id, t.model_type, t.from_state, t.to_state, t.created_at, t.updated_at
		FROM %s t%s ORDER BY t.created_at, t.id`, s.tables.Transitions, where)
	return s.queryTransitions(ctx, q, args...)
}

func transitionFilter(prefix string, q transition.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.ModelType != "" {
		conds = append(conds, prefix+"model_type = ?")
		args = append(args, string(q.ModelType))
	}
	if q.FromState != "" {
		conds = append(conds, prefix+"from_state = ?")
		args = append(args, q.FromState)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) queryTransitions(ctx context.Context, q string, args ...any) ([]transition.Transition, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]transition.Transition, 0)
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransition(row scanner) (transition.Transition, error) {
	var (
		t                transition.Transition
		id               string
		created, updated string
	)
	if err := row.Scan(&id, &t.ModelType, &t.FromState, &t.ToState, &created, &updated); err != nil {
		return t, err
	}
	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return t, errors.Join(ErrCorruptRow, err)
	}
	if t.CreatedAt, err = parseTime(created); err != nil {
		return t, errors.Join(ErrCorruptRow, err)
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return t, errors.Join(ErrCorruptRow, err)
	}
	return t, nil
}

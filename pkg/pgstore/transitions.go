package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/statekit/pkg/pg"
	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

const transitionColumns = "id, model_type, from_state, to_state, created_at, updated_at"

func (s *Store) CreateTransition(ctx context.Context, t *transition.Transition) error {
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)`, s.q.transitions, transitionColumns)
	_, err := s.db.Exec(ctx, q, t.ID, string(t.ModelType), t.FromState, t.ToState, t.CreatedAt, t.UpdatedAt)
	if pg.IsDuplicateKeyError(err) {
		return transition.ErrDuplicateTransition
	}
	return err
}

func (s *Store) GetTransition(ctx context.Context, id uuid.UUID) (*transition.Transition, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, transitionColumns, s.q.transitions)
	t, err := scanTransition(s.db.QueryRow(ctx, q, id))
	if pg.IsNotFoundError(err) {
		return nil, transition.ErrTransitionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListTransitions(ctx context.Context, query transition.Query) ([]transition.Transition, error) {
	var p placeholders
	where := transitionFilter(&p, "", query)
	q := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY created_at, id`, transitionColumns, s.q.transitions, where)
	return s.queryTransitions(ctx, q, p.args...)
}

func (s *Store) DeleteTransition(ctx context.Context, id uuid.UUID) error {
	// Grants go with the row through ON DELETE CASCADE.
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.q.transitions)
	tag, err := s.db.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return transition.ErrTransitionNotFound
	}
	return nil
}

func (s *Store) AttachPrincipal(ctx context.Context, transitionID uuid.UUID, p transition.Principal) error {
	q := fmt.Sprintf(`INSERT INTO %s (transition_id, model_type, model_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (transition_id, model_type, model_id) DO NOTHING`, s.q.grants)
	_, err := s.db.Exec(ctx, q, transitionID, string(p.Type), p.ID)
	if pg.IsForeignKeyViolationError(err) {
		return transition.ErrTransitionNotFound
	}
	return err
}

func (s *Store) DetachPrincipal(ctx context.Context, transitionID uuid.UUID, p transition.Principal) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE transition_id = $1 AND model_type = $2 AND model_id = $3`, s.q.grants)
	_, err := s.db.Exec(ctx, q, transitionID, string(p.Type), p.ID)
	return err
}

func (s *Store) ListPrincipals(ctx context.Context, transitionID uuid.UUID) ([]transition.Principal, error) {
	q := fmt.Sprintf(`SELECT model_type, model_id FROM %s WHERE transition_id = $1 ORDER BY created_at, model_type, model_id`, s.q.grants)
	rows, err := s.db.Query(ctx, q, transitionID)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (transition.Principal, error) {
		var kind, id string
		err := row.Scan(&kind, &id)
		return transition.Principal{Type: transition.PrincipalType(kind), ID: id}, err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []transition.Principal{}
	}
	return out, nil
}

func (s *Store) ListGranted(ctx context.Context, query transition.Query, principals []transition.Principal) ([]transition.Transition, error) {
	if len(principals) == 0 {
		return []transition.Transition{}, nil
	}

	kinds := make([]string, 0, len(principals))
	ids := make([]string, 0, len(principals))
	for _, p := range principals {
		kinds = append(kinds, string(p.Type))
		ids = append(ids, p.ID)
	}

	var p placeholders
	kindsArg, idsArg := p.add(kinds), p.add(ids)
	exists := fmt.Sprintf(`EXISTS (SELECT 1 FROM %s g
		WHERE g.transition_id = t.id
		AND (g.model_type, g.model_id) IN (SELECT * FROM unnest(%s::text[], %s::text[])))`,
		s.q.grants, kindsArg, idsArg)

	where := transitionFilter(&p, "t.", query)
	if where == "" {
		where = " WHERE " + exists
	} else {
		where += " AND " + exists
	}

	q := fmt.Sprintf(`SELECT t.id, t.model_type, t.from_state, t.to_state, t.created_at, t.updated_at
		FROM %s t%s ORDER BY t.created_at, t.id`, s.q.transitions, where)
	return s.queryTransitions(ctx, q, p.args...)
}

func transitionFilter(p *placeholders, prefix string, q transition.Query) string {
	var conds []string
	if q.ModelType != "" {
		conds = append(conds, prefix+"model_type = "+p.add(string(q.ModelType)))
	}
	if q.FromState != "" {
		conds = append(conds, prefix+"from_state = "+p.add(q.FromState))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (s *Store) queryTransitions(ctx context.Context, q string, args ...any) ([]transition.Transition, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (transition.Transition, error) {
		return scanTransition(row)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []transition.Transition{}
	}
	return out, nil
}

func scanTransition(row pgx.Row) (transition.Transition, error) {
	var (
		t         transition.Transition
		modelType string
	)
	err := row.Scan(&t.ID, &modelType, &t.FromState, &t.ToState, &t.CreatedAt, &t.UpdatedAt)
	t.ModelType = state.ModelType(modelType)
	return t, err
}

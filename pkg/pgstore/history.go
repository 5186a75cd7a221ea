package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/state"
)

const historyColumns = "id, model_type, model_id, from_state, to_state, description, custom_properties, created_by, created_at, updated_at"

func (s *Store) Store(ctx context.Context, rec history.Record) error {
	props, err := encodeProperties(rec.CustomProperties)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.q.history, historyColumns)
	_, err = s.db.Exec(ctx, q,
		rec.ID, string(rec.Model.Type), rec.Model.ID,
		rec.FromState, rec.ToState,
		rec.Description, props, rec.CreatedBy,
		rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func (s *Store) Query(ctx context.Context, c history.Criteria) ([]history.Record, error) {
	var p placeholders
	where := historyFilter(&p, c)
	dir := "ASC"
	if c.Order == history.OrderDesc {
		dir = "DESC"
	}
	q := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY created_at %s, id %s`, historyColumns, s.q.history, where, dir, dir)
	if c.Limit > 0 {
		q += " LIMIT " + p.add(c.Limit)
	}
	if c.Offset > 0 {
		q += " OFFSET " + p.add(c.Offset)
	}

	rows, err := s.db.Query(ctx, q, p.args...)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (history.Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []history.Record{}
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, c history.Criteria) (int64, error) {
	var p placeholders
	where := historyFilter(&p, c)
	var n int64
	q := fmt.Sprintf(`SELECT count(*) FROM %s%s`, s.q.history, where)
	if err := s.db.QueryRow(ctx, q, p.args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Annotate(ctx context.Context, id uuid.UUID, md history.Metadata, at time.Time) error {
	props, err := encodeProperties(md.StoredProperties())
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %s SET description = $1, custom_properties = $2, updated_at = $3 WHERE id = $4`, s.q.history)
	tag, err := s.db.Exec(ctx, q, md.StoredDescription(), props, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return history.ErrRecordNotFound
	}
	return nil
}

func historyFilter(p *placeholders, c history.Criteria) string {
	var conds []string
	if !c.Model.IsZero() {
		conds = append(conds,
			"model_type = "+p.add(string(c.Model.Type)),
			"model_id = "+p.add(c.Model.ID),
		)
	}
	if c.ModelType != "" {
		conds = append(conds, "model_type = "+p.add(string(c.ModelType)))
	}
	if c.FromState != "" {
		conds = append(conds, "from_state = "+p.add(c.FromState))
	}
	if c.ToState != "" {
		conds = append(conds, "to_state = "+p.add(c.ToState))
	}
	if c.CreatedBy != "" {
		conds = append(conds, "created_by = "+p.add(c.CreatedBy))
	}
	if !c.Since.IsZero() {
		conds = append(conds, "created_at >= "+p.add(c.Since))
	}
	if !c.Until.IsZero() {
		conds = append(conds, "created_at < "+p.add(c.Until))
	}
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func scanRecord(row pgx.Row) (history.Record, error) {
	var (
		rec       history.Record
		modelType string
		props     []byte
	)
	err := row.Scan(&rec.ID, &modelType, &rec.Model.ID, &rec.FromState, &rec.ToState,
		&rec.Description, &props, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return rec, err
	}
	rec.Model.Type = state.ModelType(modelType)
	if props != nil {
		if err := json.Unmarshal(props, &rec.CustomProperties); err != nil {
			return rec, errors.Join(ErrCorruptRow, err)
		}
	}
	return rec, nil
}

// encodeProperties maps nil to NULL and any other map, empty included, to a JSON object.
func encodeProperties(props map[string]any) (any, error) {
	if props == nil {
		return nil, nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode custom properties: %w", err)
	}
	return string(b), nil
}

package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/statekit/pkg/history"
)

const historyColumns = "id, model_type, model_id, from_state, to_state, description, custom_properties, created_by, created_at, updated_at"

func (s *Store) Store(ctx context.Context, rec history.Record) error {
	props, err := encodeProperties(rec.CustomProperties)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.tables.History, historyColumns)
	_, err = s.db.ExecContext(ctx, q,
		rec.ID.String(), string(rec.Model.Type), rec.Model.ID,
		rec.FromState, rec.ToState,
		nullString(rec.Description), props, nullString(rec.CreatedBy),
		formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	)
	return err
}

func (s *Store) Query(ctx context.Context, c history.Criteria) ([]history.Record, error) {
	where, args := historyFilter(c)
	dir := "ASC"
	if c.Order == history.OrderDesc {
		dir = "DESC"
	}
	q := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY created_at %s, id %s`, historyColumns, s.tables.History, where, dir, dir)
	if c.Limit > 0 || c.Offset > 0 {
		limit := c.Limit
		if limit <= 0 {
			limit = -1
		}
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, max(c.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]history.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context, c history.Criteria) (int64, error) {
	where, args := historyFilter(c)
	var n int64
	q := fmt.Sprintf(`SELECT count(*) FROM %s%s`, s.tables.History, where)
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Annotate(ctx context.Context, id uuid.UUID, md history.Metadata, at time.Time) error {
	props, err := encodeProperties(md.StoredProperties())
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE %s SET description = ?, custom_properties = ?, updated_at = ? WHERE id = ?`, s.tables.History)
	res, err := s.db.ExecContext(ctx, q, nullString(md.StoredDescription()), props, formatTime(at), id.String())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return history.ErrRecordNotFound
	}
	return nil
}

func historyFilter(c history.Criteria) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}
	if !c.Model.IsZero() {
		add("model_type = ?", string(c.Model.Type))
		add("model_id = ?", c.Model.ID)
	}
	if c.ModelType != "" {
		add("model_type = ?", string(c.ModelType))
	}
	if c.FromState != "" {
		add("from_state = ?", c.FromState)
	}
	if c.ToState != "" {
		add("to_state = ?", c.ToState)
	}
	if c.CreatedBy != "" {
		add("created_by = ?", c.CreatedBy)
	}
	if !c.Since.IsZero() {
		add("created_at >= ?", formatTime(c.Since))
	}
	if !c.Until.IsZero() {
		add("created_at < ?", formatTime(c.Until))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRecord(row scanner) (history.Record, error) {
	var (
		rec              history.Record
		id               string
		description      sql.NullString
		props            sql.NullString
		createdBy        sql.NullString
		created, updated string
	)
	err := row.Scan(&id, &rec.Model.Type, &rec.Model.ID, &rec.FromState, &rec.ToState,
		&description, &props, &createdBy, &created, &updated)
	if err != nil {
		return rec, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return rec, errors.Join(ErrCorruptRow, err)
	}
	if description.Valid {
		rec.Description = &description.String
	}
	if createdBy.Valid {
		rec.CreatedBy = &createdBy.String
	}
	if props.Valid {
		if err := json.Unmarshal([]byte(props.String), &rec.CustomProperties); err != nil {
			return rec, errors.Join(ErrCorruptRow, err)
		}
	}
	if rec.CreatedAt, err = parseTime(created); err != nil {
		return rec, errors.Join(ErrCorruptRow, err)
	}
	if rec.UpdatedAt, err = parseTime(updated); err != nil {
		return rec, errors.Join(ErrCorruptRow, err)
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

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

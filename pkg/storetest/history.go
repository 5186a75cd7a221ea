package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/state"
)

// HistoryStorage runs the history.Storage contract against fresh storages
// from newStorage. Counter is exercised when the storage implements it.
func HistoryStorage(t *testing.T, newStorage func(t *testing.T) history.Storage) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	p1 := state.Ref("payment", "p-1")
	p2 := state.Ref("payment", "p-2")
	o1 := state.Ref("order", "o-1")

	str := func(s string) *string { return &s }

	record := func(t *testing.T, s history.Storage, offset int, ref state.ModelRef, from, to string, by *string) history.Record {
		t.Helper()
		at := base.Add(time.Duration(offset) * time.Minute)
		rec := history.Record{
			ID:        uuid.Must(uuid.NewV7()),
			Model:     ref,
			FromState: from,
			ToState:   to,
			CreatedBy: by,
			CreatedAt: at,
			UpdatedAt: at,
		}
		require.NoError(t, s.Store(ctx, rec))
		return rec
	}

	seed := func(t *testing.T, s history.Storage) []history.Record {
		t.Helper()
		return []history.Record{
			record(t, s, 0, p1, "", "pending", nil),
			record(t, s, 1, p1, "pending", "approved", str("alice")),
			record(t, s, 2, p2, "", "pending", str("bob")),
			record(t, s, 3, o1, "pending", "approved", str("alice")),
			record(t, s, 4, p1, "approved", "refunded", str("alice")),
		}
	}

	t.Run("store and query round trip", func(t *testing.T) {
		s := newStorage(t)
		rec := history.Record{
			ID:               uuid.Must(uuid.NewV7()),
			Model:            p1,
			FromState:        "pending",
			ToState:          "approved",
			Description:      str("approved by finance"),
			CustomProperties: map[string]any{"ticket": "FIN-42", "amount": 12.5},
			CreatedBy:        str("alice"),
			CreatedAt:        base,
			UpdatedAt:        base,
		}
		require.NoError(t, s.Store(ctx, rec))

		got, err := s.Query(ctx, history.Criteria{Model: p1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, rec.ID, got[0].ID)
		assert.Equal(t, p1, got[0].Model)
		assert.Equal(t, "pending", got[0].FromState)
		assert.Equal(t, "approved", got[0].ToState)
		require.NotNil(t, got[0].Description)
		assert.Equal(t, "approved by finance", *got[0].Description)
		assert.Equal(t, map[string]any{"ticket": "FIN-42", "amount": 12.5}, got[0].CustomProperties)
		require.NotNil(t, got[0].CreatedBy)
		assert.Equal(t, "alice", *got[0].CreatedBy)
		assert.True(t, base.Equal(got[0].CreatedAt))
	})

	t.Run("stored properties are detached from callers", func(t *testing.T) {
		s := newStorage(t)
		nested := map[string]any{"ip": "10.0.0.1"}
		rec := history.Record{
			ID:               uuid.Must(uuid.NewV7()),
			Model:            p1,
			ToState:          "pending",
			CustomProperties: map[string]any{"meta": nested, "tags": []any{"a"}},
			CreatedAt:        base,
			UpdatedAt:        base,
		}
		require.NoError(t, s.Store(ctx, rec))
		nested["ip"] = "changed"
		rec.CustomProperties["tags"].([]any)[0] = "changed"

		got, err := s.Query(ctx, history.Criteria{Model: p1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		meta, ok := got[0].CustomProperties["meta"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "10.0.0.1", meta["ip"])
		assert.Equal(t, []any{"a"}, got[0].CustomProperties["tags"])

		meta["ip"] = "changed"
		again, err := s.Query(ctx, history.Criteria{Model: p1})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"ip": "10.0.0.1"}, again[0].CustomProperties["meta"])
	})

	t.Run("null and empty properties", func(t *testing.T) {
		s := newStorage(t)
		empty := history.Record{ID: uuid.Must(uuid.NewV7()), Model: p1, ToState: "pending", CustomProperties: map[string]any{}, CreatedAt: base, UpdatedAt: base}
		absent := history.Record{ID: uuid.Must(uuid.NewV7()), Model: p2, ToState: "pending", CreatedAt: base, UpdatedAt: base}
		require.NoError(t, s.Store(ctx, empty))
		require.NoError(t, s.Store(ctx, absent))

		got, err := s.Query(ctx, history.Criteria{Model: p1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.NotNil(t, got[0].CustomProperties)
		assert.Empty(t, got[0].CustomProperties)
		assert.Nil(t, got[0].Description)

		got, err = s.Query(ctx, history.Criteria{Model: p2})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].CustomProperties)
		assert.Nil(t, got[0].CreatedBy)
	})

	t.Run("filters", func(t *testing.T) {
		s := newStorage(t)
		recs := seed(t, s)

		cases := []struct {
			name     string
			criteria history.Criteria
			want     []uuid.UUID
		}{
			{"all", history.Criteria{}, []uuid.UUID{recs[0].ID, recs[1].ID, recs[2].ID, recs[3].ID, recs[4].ID}},
			{"model", history.Criteria{Model: p1}, []uuid.UUID{recs[0].ID, recs[1].ID, recs[4].ID}},
			{"model type", history.Criteria{ModelType: "payment"}, []uuid.UUID{recs[0].ID, recs[1].ID, recs[2].ID, recs[4].ID}},
			{"from state", history.Criteria{FromState: "pending"}, []uuid.UUID{recs[1].ID, recs[3].ID}},
			{"to state", history.Criteria{ModelType: "payment", ToState: "pending"}, []uuid.UUID{recs[0].ID, recs[2].ID}},
			{"created by", history.Criteria{CreatedBy: "alice"}, []uuid.UUID{recs[1].ID, recs[3].ID, recs[4].ID}},
			{"since inclusive", history.Criteria{Since: base.Add(3 * time.Minute)}, []uuid.UUID{recs[3].ID, recs[4].ID}},
			{"until exclusive", history.Criteria{Until: base.Add(2 * time.Minute)}, []uuid.UUID{recs[0].ID, recs[1].ID}},
			{"desc", history.Criteria{Model: p1, Order: history.OrderDesc}, []uuid.UUID{recs[4].ID, recs[1].ID, recs[0].ID}},
			{"limit", history.Criteria{Limit: 2}, []uuid.UUID{recs[0].ID, recs[1].ID}},
			{"offset", history.Criteria{Offset: 3}, []uuid.UUID{recs[3].ID, recs[4].ID}},
			{"limit and offset", history.Criteria{Limit: 1, Offset: 1, Order: history.OrderDesc}, []uuid.UUID{recs[3].ID}},
			{"offset past end", history.Criteria{Offset: 10}, []uuid.UUID{}},
			{"no match", history.Criteria{Model: state.Ref("payment", "missing")}, []uuid.UUID{}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got, err := s.Query(ctx, tc.criteria)
				require.NoError(t, err)
				assert.Equal(t, tc.want, recordIDs(got))
			})
		}

		counter, ok := s.(history.Counter)
		if !ok {
			return
		}
		n, err := counter.Count(ctx, history.Criteria{ModelType: "payment"})
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		n, err = counter.Count(ctx, history.Criteria{Model: p1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n, "paging is ignored by count")
	})

	t.Run("annotate", func(t *testing.T) {
		s := newStorage(t)
		rec := record(t, s, 0, p1, "pending", "approved", nil)
		later := base.Add(time.Hour)

		md := history.Metadata{Description: "late note", Properties: map[string]any{"reason": "audit"}}
		require.NoError(t, s.Annotate(ctx, rec.ID, md, later))

		got, err := s.Query(ctx, history.Criteria{Model: p1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].Description)
		assert.Equal(t, "late note", *got[0].Description)
		assert.Equal(t, map[string]any{"reason": "audit"}, got[0].CustomProperties)
		assert.True(t, later.Equal(got[0].UpdatedAt))
		assert.True(t, base.Equal(got[0].CreatedAt))

		require.NoError(t, s.Annotate(ctx, rec.ID, history.Metadata{}, later))
		got, err = s.Query(ctx, history.Criteria{Model: p1})
		require.NoError(t, err)
		assert.Nil(t, got[0].Description)
		assert.Nil(t, got[0].CustomProperties)
	})

	t.Run("annotate unknown", func(t *testing.T) {
		s := newStorage(t)
		err := s.Annotate(ctx, uuid.New(), history.Metadata{Description: "x"}, base)
		assert.ErrorIs(t, err, history.ErrRecordNotFound)
	})
}

func recordIDs(list []history.Record) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

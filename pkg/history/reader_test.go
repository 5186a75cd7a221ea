package history_test

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

func seedHistory(t *testing.T, storage *history.MemoryStorage) []history.Record {
	t.Helper()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []history.Record{
		{ID: uuid.New(), Model: paymentRef, FromState: "", ToState: "pending", CreatedAt: base},
		{ID: uuid.New(), Model: paymentRef, FromState: "pending", ToState: "approved", CreatedBy: strPtr("u1"), CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), Model: state.Ref("payment", "p-2"), FromState: "pending", ToState: "declined", CreatedAt: base.Add(2 * time.Minute)},
		{ID: uuid.New(), Model: state.Ref("order", "o-1"), FromState: "new", ToState: "shipped", CreatedBy: strPtr("u1"), CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, r := range records {
		require.NoError(t, storage.Store(context.Background(), r))
	}
	return records
}

func TestReaderForModelAndLatest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := history.NewMemoryStorage()
	records := seedHistory(t, storage)
	reader := history.NewReader(storage, nil)

	list, err := reader.ForModel(ctx, paymentRef)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, records[0].ID, list[0].ID)
	assert.Equal(t, records[1].ID, list[1].ID)

	latest, err := reader.Latest(ctx, paymentRef)
	require.NoError(t, err)
	assert.Equal(t, records[1].ID, latest.ID)

	_, err = reader.Latest(ctx, state.Ref("payment", "missing"))
	assert.ErrorIs(t, err, history.ErrRecordNotFound)

	_, err = reader.ForModel(ctx, state.ModelRef{})
	assert.ErrorIs(t, err, state.ErrInvalidModelRef)
}

func TestReaderFind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := history.NewMemoryStorage()
	records := seedHistory(t, storage)
	reader := history.NewReader(storage, nil)

	tests := []struct {
		name     string
		criteria history.Criteria
		want     []uuid.UUID
	}{
		{name: "by model type", criteria: history.Criteria{ModelType: "payment"}, want: []uuid.UUID{records[0].ID, records[1].ID, records[2].ID}},
		{name: "by created by", criteria: history.Criteria{CreatedBy: "u1"}, want: []uuid.UUID{records[1].ID, records[3].ID}},
		{name: "by from state", criteria: history.Criteria{FromState: "pending"}, want: []uuid.UUID{records[1].ID, records[2].ID}},
		{name: "by to state", criteria: history.Criteria{ToState: "shipped"}, want: []uuid.UUID{records[3].ID}},
		{name: "time window", criteria: history.Criteria{Since: records[1].CreatedAt, Until: records[3].CreatedAt}, want: []uuid.UUID{records[1].ID, records[2].ID}},
		{name: "descending with paging", criteria: history.Criteria{Order: history.OrderDesc, Offset: 1, Limit: 2}, want: []uuid.UUID{records[2].ID, records[1].ID}},
		{name: "offset past the end", criteria: history.Criteria{Offset: 10}, want: []uuid.UUID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			list, err := reader.Find(ctx, tt.criteria)
			require.NoError(t, err)
			ids := make([]uuid.UUID, 0, len(list))
			for _, r := range list {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestReaderCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("uses counter", func(t *testing.T) {
		t.Parallel()
		storage := history.NewMemoryStorage()
		seedHistory(t, storage)
		n, err := history.NewReader(storage, nil).Count(ctx, history.Criteria{ModelType: "payment"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("falls back to query without paging", func(t *testing.T) {
		t.Parallel()
		storage := new(MockStorage)
		storage.On("Query", ctx, history.Criteria{ModelType: "order"}).
			Return([]history.Record{{ID: uuid.New()}, {ID: uuid.New()}}, nil).Once()

		n, err := history.NewReader(storage, nil).Count(ctx, history.Criteria{ModelType: "order", Limit: 1, Offset: 5})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
		storage.AssertExpectations(t)
	})
}

func TestReaderModel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	registry := state.MustNewRegistry(
		state.WithStates("payment", pending, approved),
		state.WithLoader("payment", func(_ context.Context, id string) (any, error) {
			return map[string]string{"id": id}, nil
		}),
	)
	reader := history.NewReader(history.NewMemoryStorage(), registry)

	entity, err := reader.Model(ctx, history.Record{Model: paymentRef})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "p-1"}, entity)

	_, err = history.NewReader(new(MockStorage), nil).Model(ctx, history.Record{Model: paymentRef})
	assert.ErrorIs(t, err, state.ErrLoaderNotRegistered)

	rec := history.Record{Model: paymentRef, FromState: "pending", ToState: "approved"}
	from, to, err := rec.States(state.NewCodec(registry))
	require.NoError(t, err)
	assert.Equal(t, pending, from)
	assert.Equal(t, approved, to)
}

func TestMemoryStorageReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := history.NewMemoryStorage()

	nested := map[string]any{"ip": "10.0.0.1"}
	tags := []any{"a"}
	rec := history.Record{
		ID:               uuid.New(),
		Model:            paymentRef,
		CustomProperties: map[string]any{"k": 1, "meta": nested, "tags": tags},
		Description:      strPtr("d"),
	}
	require.NoError(t, storage.Store(ctx, rec))
	rec.CustomProperties["k"] = 2
	nested["ip"] = "changed"
	tags[0] = "changed"
	*rec.Description = "changed"

	list, err := storage.Query(ctx, history.Criteria{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, float64(1), list[0].CustomProperties["k"], "numbers come back as JSON numbers")
	assert.Equal(t, map[string]any{"ip": "10.0.0.1"}, list[0].CustomProperties["meta"])
	assert.Equal(t, []any{"a"}, list[0].CustomProperties["tags"])
	assert.Equal(t, "d", *list[0].Description)

	list[0].CustomProperties["k"] = 3
	list[0].CustomProperties["meta"].(map[string]any)["ip"] = "changed"
	again, err := storage.Query(ctx, history.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, float64(1), again[0].CustomProperties["k"])
	assert.Equal(t, map[string]any{"ip": "10.0.0.1"}, again[0].CustomProperties["meta"])
}

func TestMemoryStorageRejectsUnencodableProperties(t *testing.T) {
	t.Parallel()
	storage := history.NewMemoryStorage()

	err := storage.Store(context.Background(), history.Record{
		ID:               uuid.New(),
		Model:            paymentRef,
		CustomProperties: map[string]any{"fn": func() {}},
	})
	require.Error(t, err)

	count, err := storage.Count(context.Background(), history.Criteria{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

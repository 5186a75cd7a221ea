package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/state"
)

func TestRecorderDecisionRule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name       string
		commit     history.Commit
		md         history.Metadata
		wantRecord bool
		wantDesc   *string
		wantProps  map[string]any
	}{
		{
			name:       "state changed",
			commit:     history.Commit{Model: paymentRef, FromState: "pending", ToState: "approved"},
			wantRecord: true,
		},
		{
			name:       "no-op commit",
			commit:     history.Commit{Model: paymentRef, FromState: "pending", ToState: "pending"},
			wantRecord: false,
		},
		{
			name:       "blank metadata counts as absent",
			commit:     history.Commit{Model: paymentRef, FromState: "pending", ToState: "pending"},
			md:         history.Metadata{Description: "   ", Properties: map[string]any{}},
			wantRecord: false,
		},
		{
			name:       "description only",
			commit:     history.Commit{Model: paymentRef, FromState: "pending", ToState: "pending"},
			md:         history.Metadata{Description: "x"},
			wantRecord: true,
			wantDesc:   strPtr("x"),
		},
		{
			name:       "properties only",
			commit:     history.Commit{Model: paymentRef, FromState: "pending", ToState: "pending"},
			md:         history.Metadata{Properties: map[string]any{"k": 1.5}},
			wantRecord: true,
			wantProps:  map[string]any{"k": 1.5},
		},
		{
			name:       "explicitly kept empty properties",
			commit:     history.Commit{Model: paymentRef, FromState: "pending", ToState: "pending"},
			md:         history.Metadata{Properties: map[string]any{}, KeepEmpty: true},
			wantRecord: true,
			wantProps:  map[string]any{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			storage := history.NewMemoryStorage()
			recorder := history.NewRecorder(storage)

			rec, err := recorder.Record(ctx, tt.commit, tt.md)
			require.NoError(t, err)

			stored, err := storage.Query(ctx, history.Criteria{})
			require.NoError(t, err)

			if !tt.wantRecord {
				assert.Nil(t, rec)
				assert.Empty(t, stored)
				return
			}

			require.NotNil(t, rec)
			require.Len(t, stored, 1)
			assert.Equal(t, *rec, stored[0])
			assert.Equal(t, tt.commit.FromState, rec.FromState)
			assert.Equal(t, tt.commit.ToState, rec.ToState)
			assert.Equal(t, tt.wantDesc, rec.Description)
			assert.Equal(t, tt.wantProps, rec.CustomProperties)
			assert.Equal(t, uuid.Version(7), rec.ID.Version())
		})
	}
}

func TestRecorderCreatedBy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := history.NewMemoryStorage()

	type actorKey struct{}
	recorder := history.NewRecorder(storage,
		history.WithActorExtractor(func(ctx context.Context) (string, bool) {
			id, ok := ctx.Value(actorKey{}).(string)
			return id, ok
		}),
	)

	c := history.Commit{Model: paymentRef, FromState: "pending", ToState: "approved"}

	rec, err := recorder.Record(context.WithValue(ctx, actorKey{}, "u1"), c, history.Metadata{})
	require.NoError(t, err)
	require.NotNil(t, rec.CreatedBy)
	assert.Equal(t, "u1", *rec.CreatedBy)

	rec, err = recorder.Record(ctx, c, history.Metadata{})
	require.NoError(t, err)
	assert.Nil(t, rec.CreatedBy)
}

func TestRecorderClock(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	recorder := history.NewRecorder(history.NewMemoryStorage(), history.WithClock(func() time.Time { return at }))

	rec, err := recorder.Record(context.Background(), history.Commit{Model: paymentRef, FromState: "a", ToState: "b"}, history.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, at, rec.CreatedAt)
	assert.Equal(t, at, rec.UpdatedAt)
}

func TestRecorderStorageFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	boom := errors.New("connection reset")
	storage := new(MockStorage)
	storage.On("Store", ctx, mock.AnythingOfType("history.Record")).Return(boom).Once()

	obs := new(observerMock)
	c := history.Commit{Model: paymentRef, FromState: "pending", ToState: "approved"}
	obs.On("Failed", ctx, c, mock.Anything).Once()

	recorder := history.NewRecorder(storage, history.WithObserver(obs))
	rec, err := recorder.Record(ctx, c, history.Metadata{})
	assert.Nil(t, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, history.ErrHistoryWriteFailed)
	assert.ErrorIs(t, err, boom)
	assert.True(t, history.IsHistoryWriteError(err))

	var werr *history.ErrHistoryWrite
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, c, werr.Commit)

	storage.AssertExpectations(t)
	obs.AssertExpectations(t)
}

func TestRecorderObserver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	obs := new(observerMock)
	noop := history.Commit{Model: paymentRef, FromState: "pending", ToState: "pending"}
	obs.On("Skipped", ctx, noop).Once()
	obs.On("Recorded", ctx, mock.AnythingOfType("history.Record")).Once()

	recorder := history.NewRecorder(history.NewMemoryStorage(), history.WithObserver(obs))
	_, err := recorder.Record(ctx, noop, history.Metadata{})
	require.NoError(t, err)
	_, err = recorder.Record(ctx, history.Commit{Model: paymentRef, FromState: "pending", ToState: "approved"}, history.Metadata{})
	require.NoError(t, err)

	obs.AssertExpectations(t)
}

func TestRecorderRejectsInvalidRef(t *testing.T) {
	t.Parallel()
	recorder := history.NewRecorder(history.NewMemoryStorage())
	_, err := recorder.Record(context.Background(), history.Commit{FromState: "a", ToState: "b"}, history.Metadata{})
	assert.ErrorIs(t, err, state.ErrInvalidModelRef)
}

func TestRecorderAnnotate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := history.NewMemoryStorage()
	recorder := history.NewRecorder(storage)

	rec, err := recorder.Record(ctx, history.Commit{Model: paymentRef, FromState: "pending", ToState: "approved"},
		history.Metadata{Description: "typo"})
	require.NoError(t, err)

	require.NoError(t, recorder.Annotate(ctx, rec.ID, history.Metadata{Properties: map[string]any{"ticket": "OPS-1"}}))

	stored, err := storage.Query(ctx, history.Criteria{Model: paymentRef})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].Description)
	assert.Equal(t, map[string]any{"ticket": "OPS-1"}, stored[0].CustomProperties)
	assert.Equal(t, "pending", stored[0].FromState)

	assert.ErrorIs(t, recorder.Annotate(ctx, uuid.New(), history.Metadata{}), history.ErrRecordNotFound)
}

func TestNewRecorderPanicsOnNilStorage(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { history.NewRecorder(nil) })
}

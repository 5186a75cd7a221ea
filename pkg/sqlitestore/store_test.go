package sqlitestore_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/schema"
	"github.com/dmitrymomot/statekit/pkg/sqlitestore"
	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/storetest"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

func newStore(t *testing.T, opts ...sqlitestore.Option) *sqlitestore.Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlitestore.Open(ctx, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := sqlitestore.New(db, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx, slog.New(slog.DiscardHandler)))
	return s
}

func TestTransitionStore(t *testing.T) {
	t.Parallel()
	storetest.TransitionStore(t, func(t *testing.T) transition.Store {
		return newStore(t)
	})
}

func TestHistoryStorage(t *testing.T) {
	t.Parallel()
	storetest.HistoryStorage(t, func(t *testing.T) history.Storage {
		return newStore(t)
	})
}

func TestCustomTables(t *testing.T) {
	t.Parallel()
	storetest.TransitionStore(t, func(t *testing.T) transition.Store {
		return newStore(t, sqlitestore.WithTables(schema.Tables{
			Transitions: "wf_transitions",
			Grants:      "wf_grants",
		}))
	})
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil db panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { _, _ = sqlitestore.New(nil) })
	})

	t.Run("invalid table names", func(t *testing.T) {
		t.Parallel()
		db, err := sqlitestore.Open(context.Background(), "file::memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		_, err = sqlitestore.New(db, sqlitestore.WithTables(schema.Tables{History: "drop table"}))
		assert.ErrorIs(t, err, schema.ErrInvalidTableName)
	})

	t.Run("empty dsn", func(t *testing.T) {
		t.Parallel()
		_, err := sqlitestore.Open(context.Background(), "")
		assert.ErrorIs(t, err, sqlitestore.ErrEmptyDSN)
	})
}

type paymentState string

func (s paymentState) Name() string { return string(s) }

type payment struct {
	id    string
	state paymentState
}

func (p payment) ModelRef() state.ModelRef { return state.Ref("payment", p.id) }
func (p payment) State() state.State       { return p.state }

func TestEndToEnd(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := newStore(t)

	registry := state.MustNewRegistry(
		state.WithStates("payment", paymentState("pending"), paymentState("approved"), paymentState("declined")),
	)
	codec := state.NewCodec(registry)
	catalog := transition.NewCatalog(store, codec)
	index := transition.NewIndex(store)
	authz := transition.NewAuthorizer(store, codec)

	approve, err := catalog.Register(ctx, "payment", paymentState("pending"), paymentState("approved"))
	require.NoError(t, err)
	decline, err := catalog.Register(ctx, "payment", "pending", "declined")
	require.NoError(t, err)
	_, err = catalog.Register(ctx, "payment", "pending", "approved")
	assert.True(t, transition.IsDuplicateError(err))

	require.NoError(t, index.Grant(ctx, approve.ID, index.User("alice")))
	require.NoError(t, index.Grant(ctx, decline.ID, index.Role("finance")))

	p := payment{id: "p-1", state: "pending"}

	available, err := authz.Available(ctx, p, transition.UserID("alice"))
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, approve.ID, available[0].ID)

	assert.True(t, authz.Can(ctx, p, transition.UserID("alice"), paymentState("approved")))
	assert.False(t, authz.Can(ctx, p, transition.UserID("alice"), paymentState("declined")))

	recorder := history.NewRecorder(store, history.WithActorExtractor(transition.ActorIDFromContext))
	tracker := history.NewTracker(recorder, nil)

	actx := transition.WithActor(ctx, transition.UserID("alice"))
	require.NoError(t, tracker.Stage(actx, p.ModelRef(), history.WithDescription("manual review")))
	rec, err := tracker.TransitionTo(actx, p.ModelRef(), p.state, paymentState("approved"), func(context.Context) error {
		p.state = "approved"
		return nil
	}, history.WithProperties(map[string]any{"ticket": "FIN-7"}))
	require.NoError(t, err)
	require.NotNil(t, rec)

	reader := history.NewReader(store, registry)
	latest, err := reader.Latest(ctx, p.ModelRef())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, latest.ID)
	assert.Equal(t, "pending", latest.FromState)
	assert.Equal(t, "approved", latest.ToState)
	require.NotNil(t, latest.Description)
	assert.Equal(t, "manual review", *latest.Description)
	assert.Equal(t, map[string]any{"ticket": "FIN-7"}, latest.CustomProperties)
	require.NotNil(t, latest.CreatedBy)
	assert.Equal(t, "alice", *latest.CreatedBy)

	n, err := reader.Count(ctx, history.Criteria{Model: p.ModelRef()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, catalog.Delete(ctx, approve.ID))
	available, err = authz.Available(ctx, payment{id: "p-2", state: "pending"}, transition.UserID("alice"))
	require.NoError(t, err)
	assert.Empty(t, available)
}

package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

// TransitionStore runs the transition.Store contract against fresh stores from newStore.
func TransitionStore(t *testing.T, newStore func(t *testing.T) transition.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	alice := transition.Principal{Type: "user", ID: "alice"}
	bob := transition.Principal{Type: "user", ID: "bob"}
	admins := transition.Principal{Type: "role", ID: "admin"}

	create := func(t *testing.T, s transition.Store, offset int, modelType, from, to string) transition.Transition {
		t.Helper()
		at := base.Add(time.Duration(offset) * time.Second)
		tr := transition.Transition{
			ID:        uuid.New(),
			ModelType: state.ModelType(modelType),
			FromState: from,
			ToState:   to,
			CreatedAt: at,
			UpdatedAt: at,
		}
		require.NoError(t, s.CreateTransition(ctx, &tr))
		return tr
	}

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		tr := create(t, s, 0, "payment", "pending", "approved")

		got, err := s.GetTransition(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, tr.ID, got.ID)
		assert.Equal(t, tr.ModelType, got.ModelType)
		assert.Equal(t, "pending", got.FromState)
		assert.Equal(t, "approved", got.ToState)
		assert.True(t, tr.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("get unknown", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetTransition(ctx, uuid.New())
		assert.ErrorIs(t, err, transition.ErrTransitionNotFound)
	})

	t.Run("duplicate triple", func(t *testing.T) {
		s := newStore(t)
		create(t, s, 0, "payment", "pending", "approved")

		dup := transition.Transition{ID: uuid.New(), ModelType: "payment", FromState: "pending", ToState: "approved", CreatedAt: base, UpdatedAt: base}
		assert.ErrorIs(t, s.CreateTransition(ctx, &dup), transition.ErrDuplicateTransition)

		other := transition.Transition{ID: uuid.New(), ModelType: "order", FromState: "pending", ToState: "approved", CreatedAt: base, UpdatedAt: base}
		assert.NoError(t, s.CreateTransition(ctx, &other))
	})

	t.Run("list filters and orders", func(t *testing.T) {
		s := newStore(t)
		second := create(t, s, 2, "payment", "pending", "declined")
		first := create(t, s, 1, "payment", "pending", "approved")
		third := create(t, s, 3, "payment", "approved", "refunded")
		create(t, s, 4, "order", "pending", "approved")

		all, err := s.ListTransitions(ctx, transition.Query{})
		require.NoError(t, err)
		assert.Len(t, all, 4)

		payments, err := s.ListTransitions(ctx, transition.Query{ModelType: "payment"})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first.ID, second.ID, third.ID}, ids(payments))

		fromPending, err := s.ListTransitions(ctx, transition.Query{ModelType: "payment", FromState: "pending"})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first.ID, second.ID}, ids(fromPending))

		none, err := s.ListTransitions(ctx, transition.Query{ModelType: "invoice"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("attach is idempotent", func(t *testing.T) {
		s := newStore(t)
		tr := create(t, s, 0, "payment", "pending", "approved")

		require.NoError(t, s.AttachPrincipal(ctx, tr.ID, alice))
		require.NoError(t, s.AttachPrincipal(ctx, tr.ID, alice))
		require.NoError(t, s.AttachPrincipal(ctx, tr.ID, admins))

		got, err := s.ListPrincipals(ctx, tr.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []transition.Principal{alice, admins}, got)
	})

	t.Run("attach to unknown transition", func(t *testing.T) {
		s := newStore(t)
		err := s.AttachPrincipal(ctx, uuid.New(), alice)
		assert.ErrorIs(t, err, transition.ErrTransitionNotFound)
	})

	t.Run("detach", func(t *testing.T) {
		s := newStore(t)
		tr := create(t, s, 0, "payment", "pending", "approved")
		require.NoError(t, s.AttachPrincipal(ctx, tr.ID, alice))
		require.NoError(t, s.AttachPrincipal(ctx, tr.ID, bob))

		require.NoError(t, s.DetachPrincipal(ctx, tr.ID, alice))
		require.NoError(t, s.DetachPrincipal(ctx, tr.ID, alice))
		require.NoError(t, s.DetachPrincipal(ctx, uuid.New(), alice))

		got, err := s.ListPrincipals(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, []transition.Principal{bob}, got)
	})

	t.Run("list principals of unknown transition", func(t *testing.T) {
		s := newStore(t)
		got, err := s.ListPrincipals(ctx, uuid.New())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("delete cascades grants", func(t *testing.T) {
		s := newStore(t)
		tr := create(t, s, 0, "payment", "pending", "approved")
		require.NoError(t, s.AttachPrincipal(ctx, tr.ID, alice))

		require.NoError(t, s.DeleteTransition(ctx, tr.ID))
		_, err := s.GetTransition(ctx, tr.ID)
		assert.ErrorIs(t, err, transition.ErrTransitionNotFound)

		granted, err := s.ListGranted(ctx, transition.Query{}, []transition.Principal{alice})
		require.NoError(t, err)
		assert.Empty(t, granted)

		assert.ErrorIs(t, s.DeleteTransition(ctx, tr.ID), transition.ErrTransitionNotFound)

		again := transition.Transition{ID: uuid.New(), ModelType: "payment", FromState: "pending", ToState: "approved", CreatedAt: base, UpdatedAt: base}
		assert.NoError(t, s.CreateTransition(ctx, &again), "triple is free again after delete")
	})

	t.Run("list granted", func(t *testing.T) {
		s := newStore(t)
		approve := create(t, s, 1, "payment", "pending", "approved")
		decline := create(t, s, 2, "payment", "pending", "declined")
		refund := create(t, s, 3, "payment", "approved", "refunded")
		orderApprove := create(t, s, 4, "order", "pending", "approved")

		require.NoError(t, s.AttachPrincipal(ctx, approve.ID, alice))
		require.NoError(t, s.AttachPrincipal(ctx, approve.ID, admins))
		require.NoError(t, s.AttachPrincipal(ctx, decline.ID, admins))
		require.NoError(t, s.AttachPrincipal(ctx, refund.ID, alice))
		require.NoError(t, s.AttachPrincipal(ctx, orderApprove.ID, alice))

		got, err := s.ListGranted(ctx, transition.Query{ModelType: "payment", FromState: "pending"}, []transition.Principal{alice, admins})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{approve.ID, decline.ID}, ids(got), "union without duplicates")

		got, err = s.ListGranted(ctx, transition.Query{ModelType: "payment", FromState: "pending"}, []transition.Principal{alice})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{approve.ID}, ids(got))

		got, err = s.ListGranted(ctx, transition.Query{}, []transition.Principal{alice})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{approve.ID, refund.ID, orderApprove.ID}, ids(got))

		got, err = s.ListGranted(ctx, transition.Query{ModelType: "payment"}, []transition.Principal{bob})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = s.ListGranted(ctx, transition.Query{ModelType: "payment"}, nil)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("principal kinds are distinct", func(t *testing.T) {
		s := newStore(t)
		tr := create(t, s, 0, "payment", "pending", "approved")
		require.NoError(t, s.AttachPrincipal(ctx, tr.ID, transition.Principal{Type: "role", ID: "alice"}))

		got, err := s.ListGranted(ctx, transition.Query{}, []transition.Principal{alice})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func ids(list []transition.Transition) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(list))
	for _, t := range list {
		out = append(out, t.ID)
	}
	return out
}

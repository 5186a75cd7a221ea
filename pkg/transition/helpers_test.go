package transition_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

type paymentState string

func (s paymentState) Name() string { return string(s) }

const (
	pending  paymentState = "pending"
	approved paymentState = "approved"
	declined paymentState = "declined"
	refunded paymentState = "refunded"
)

type payment struct {
	id    string
	state state.State
}

func (p payment) ModelRef() state.ModelRef { return state.Ref("payment", p.id) }
func (p payment) State() state.State       { return p.state }

type order struct {
	id    string
	state string
}

func (o order) ModelRef() state.ModelRef { return state.Ref("order", o.id) }
func (o order) State() state.State       { return state.StringState(o.state) }

// member is an actor that knows its roles.
type member struct {
	id    string
	roles []string
}

func (m member) ActorID() string                           { return m.id }
func (m member) RoleIDs(context.Context) ([]string, error) { return m.roles, nil }

func newCodec(t *testing.T) *state.Codec {
	t.Helper()
	registry, err := state.NewRegistry(
		state.WithStates("payment", pending, approved, declined, refunded),
		state.WithStates("order", state.StringState("pending"), state.StringState("approved")),
	)
	require.NoError(t, err)
	return state.NewCodec(registry)
}

type fixture struct {
	store   *transition.MemoryStore
	codec   *state.Codec
	catalog *transition.Catalog
	index   *transition.Index
	authz   *transition.Authorizer
}

func newFixture(t *testing.T, opts ...transition.Option) fixture {
	t.Helper()
	store := transition.NewMemoryStore()
	codec := newCodec(t)
	return fixture{
		store:   store,
		codec:   codec,
		catalog: transition.NewCatalog(store, codec, opts...),
		index:   transition.NewIndex(store, opts...),
		authz:   transition.NewAuthorizer(store, codec, opts...),
	}
}

func (f fixture) register(t *testing.T, modelType state.ModelType, from, to any) *transition.Transition {
	t.Helper()
	tr, err := f.catalog.Register(context.Background(), modelType, from, to)
	require.NoError(t, err)
	return tr
}

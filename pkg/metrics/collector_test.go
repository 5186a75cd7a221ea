package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/metrics"
	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

func TestCollector(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := metrics.New("test")
	q := transition.Query{ModelType: "payment", FromState: "pending"}

	c.AvailabilityResolved(ctx, q, false, 2)
	c.AvailabilityResolved(ctx, q, true, 0)
	c.AuthorizationDecided(ctx, q, "approved", true)
	c.AuthorizationDecided(ctx, q, "declined", false)
	c.AuthorizationDecided(ctx, q, "declined", false)

	ref := state.Ref("payment", "p-1")
	c.Recorded(ctx, history.Record{Model: ref})
	c.Skipped(ctx, history.Commit{Model: ref})
	c.Failed(ctx, history.Commit{Model: ref}, errors.New("boom"))

	expected := `
# HELP test_authorization_decisions_total Transition authorization decisions.
# TYPE test_authorization_decisions_total counter
test_authorization_decisions_total{from_state="pending",model_type="payment",outcome="allowed",to_state="approved"} 1
test_authorization_decisions_total{from_state="pending",model_type="payment",outcome="denied",to_state="declined"} 2
# HELP test_availability_lookups_total Available transition lookups by model type and whether the actor was anonymous.
# TYPE test_availability_lookups_total counter
test_availability_lookups_total{anonymous="false",model_type="payment"} 1
test_availability_lookups_total{anonymous="true",model_type="payment"} 1
# HELP test_history_records_total History recorder outcomes by model type.
# TYPE test_history_records_total counter
test_history_records_total{model_type="payment",outcome="failed"} 1
test_history_records_total{model_type="payment",outcome="recorded"} 1
test_history_records_total{model_type="payment",outcome="skipped"} 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"test_authorization_decisions_total",
		"test_availability_lookups_total",
		"test_history_records_total",
	)
	assert.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(c, "test_available_transitions"))
}

func TestCollectorWithAuthorizer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := metrics.New("")

	registry := state.MustNewRegistry(state.WithStates("order", state.StringState("new"), state.StringState("paid")))
	codec := state.NewCodec(registry)
	store := transition.NewMemoryStore()
	catalog := transition.NewCatalog(store, codec)
	index := transition.NewIndex(store)
	authz := transition.NewAuthorizer(store, codec, transition.WithObserver(c))

	tr, err := catalog.Register(ctx, "order", "new", "paid")
	require.NoError(t, err)
	require.NoError(t, index.Grant(ctx, tr.ID, index.User("u-1")))

	entity := order{id: "o-1", state: "new"}
	require.NoError(t, authz.Authorize(ctx, entity, transition.UserID("u-1"), "paid"))
	require.Error(t, authz.Authorize(ctx, entity, transition.UserID("u-2"), "paid"))

	expected := `
# HELP statekit_authorization_decisions_total Transition authorization decisions.
# TYPE statekit_authorization_decisions_total counter
statekit_authorization_decisions_total{from_state="new",model_type="order",outcome="allowed",to_state="paid"} 1
statekit_authorization_decisions_total{from_state="new",model_type="order",outcome="denied",to_state="paid"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "statekit_authorization_decisions_total"))
}

func TestHandler(t *testing.T) {
	t.Parallel()
	c := metrics.New("")
	c.Skipped(context.Background(), history.Commit{Model: state.Ref("order", "o-1")})

	srv := httptest.NewServer(metrics.Handler(c))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `statekit_history_records_total{model_type="order",outcome="skipped"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

type order struct {
	id    string
	state string
}

func (o order) ModelRef() state.ModelRef { return state.Ref("order", o.id) }
func (o order) State() state.State       { return state.StringState(o.state) }

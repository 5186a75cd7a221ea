package redisstage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/redisstage"
	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/storetest"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStagerContract(t *testing.T) {
	t.Parallel()
	storetest.Stager(t, func(t *testing.T) history.Stager {
		_, client := newClient(t)
		return redisstage.NewStager(client)
	})
}

func TestStagerKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, client := newClient(t)
	s := redisstage.NewStager(client, redisstage.WithPrefix("app:"), redisstage.WithTTL(time.Minute))
	ref := state.Ref("payment", "p-1")

	require.NoError(t, s.Stage(ctx, ref, history.Metadata{Description: "note"}))

	assert.True(t, mr.Exists("app:payment:p-1"))
	assert.Equal(t, "note", mr.HGet("app:payment:p-1", "description"))
	assert.Equal(t, time.Minute, mr.TTL("app:payment:p-1"))

	mr.FastForward(2 * time.Minute)
	md, err := s.Pending(ctx, ref)
	require.NoError(t, err)
	assert.True(t, md.IsEmpty(), "expired metadata is gone")
}

func TestStagerEscapesKeyParts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, client := newClient(t)
	s := redisstage.NewStager(client)

	require.NoError(t, s.Stage(ctx, state.Ref("billing:invoice", "7"), history.Metadata{Description: "a"}))
	require.NoError(t, s.Stage(ctx, state.Ref("billing", "invoice:7"), history.Metadata{Description: "b"}))

	assert.Equal(t, "a", mr.HGet("statekit:stage:billing%3Ainvoice:7", "description"))
	assert.Equal(t, "b", mr.HGet("statekit:stage:billing:invoice%3A7", "description"))
}

func TestStagerWithoutTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, client := newClient(t)
	s := redisstage.NewStager(client, redisstage.WithConfig(redisstage.Config{KeyPrefix: "x:", TTL: 0}))

	require.NoError(t, s.Stage(ctx, state.Ref("order", "o-1"), history.Metadata{Description: "note"}))
	assert.Equal(t, time.Duration(0), mr.TTL("x:order:o-1"))
}

func TestStagerCorruptEntry(t *testing.T) {
	t.Parallel()
	mr, client := newClient(t)
	mr.HSet("statekit:stage:payment:p-1", "properties", "{not json")

	_, err := redisstage.NewStager(client).Pending(context.Background(), state.Ref("payment", "p-1"))
	assert.ErrorIs(t, err, redisstage.ErrCorruptEntry)
}

func TestTrackerWithRedisStager(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, client := newClient(t)
	storage := history.NewMemoryStorage()
	tracker := history.NewTracker(history.NewRecorder(storage), redisstage.NewStager(client))
	ref := state.Ref("payment", "p-1")

	require.NoError(t, tracker.Stage(ctx, ref, history.WithDescription("staged elsewhere")))
	rec, err := tracker.AfterCommit(ctx, ref, "pending", "approved")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NotNil(t, rec.Description)
	assert.Equal(t, "staged elsewhere", *rec.Description)

	md, err := tracker.Pending(ctx, ref)
	require.NoError(t, err)
	assert.True(t, md.IsEmpty())
}

func TestNewStagerPanicsOnNilClient(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { redisstage.NewStager(nil) })
}

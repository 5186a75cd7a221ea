package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/state"
)

// Stager runs the history.Stager contract against fresh stagers from newStager.
func Stager(t *testing.T, newStager func(t *testing.T) history.Stager) {
	t.Helper()
	ctx := context.Background()
	p1 := state.Ref("payment", "p-1")
	p2 := state.Ref("payment", "p-2")

	t.Run("nothing staged", func(t *testing.T) {
		s := newStager(t)
		md, err := s.Pending(ctx, p1)
		require.NoError(t, err)
		assert.True(t, md.IsEmpty())

		md, err = s.ConsumeAndClear(ctx, p1)
		require.NoError(t, err)
		assert.True(t, md.IsEmpty())
	})

	t.Run("stage and consume", func(t *testing.T) {
		s := newStager(t)
		require.NoError(t, s.Stage(ctx, p1, history.Metadata{
			Description: "manual review",
			Properties:  map[string]any{"ticket": "FIN-1"},
		}))

		md, err := s.Pending(ctx, p1)
		require.NoError(t, err)
		assert.Equal(t, "manual review", md.Description)
		assert.Equal(t, map[string]any{"ticket": "FIN-1"}, md.Properties)

		md, err = s.ConsumeAndClear(ctx, p1)
		require.NoError(t, err)
		assert.Equal(t, "manual review", md.Description)

		md, err = s.ConsumeAndClear(ctx, p1)
		require.NoError(t, err)
		assert.True(t, md.IsEmpty(), "consume clears")
	})

	t.Run("entities are isolated", func(t *testing.T) {
		s := newStager(t)
		require.NoError(t, s.Stage(ctx, p1, history.Metadata{Description: "one"}))
		require.NoError(t, s.Stage(ctx, p2, history.Metadata{Description: "two"}))

		md, err := s.ConsumeAndClear(ctx, p1)
		require.NoError(t, err)
		assert.Equal(t, "one", md.Description)

		md, err = s.Pending(ctx, p2)
		require.NoError(t, err)
		assert.Equal(t, "two", md.Description)
	})

	t.Run("separators in references do not collide", func(t *testing.T) {
		s := newStager(t)
		a := state.Ref("billing:invoice", "7")
		b := state.Ref("billing", "invoice:7")
		require.NoError(t, s.Stage(ctx, a, history.Metadata{Description: "for a"}))

		md, err := s.ConsumeAndClear(ctx, b)
		require.NoError(t, err)
		assert.True(t, md.IsEmpty(), "metadata of one entity must not reach another")

		md, err = s.ConsumeAndClear(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, "for a", md.Description)
	})

	t.Run("present values override absent values keep", func(t *testing.T) {
		s := newStager(t)
		require.NoError(t, s.Stage(ctx, p1, history.Metadata{
			Description: "first",
			Properties:  map[string]any{"a": "1"},
		}))
		require.NoError(t, s.Stage(ctx, p1, history.Metadata{Description: "second"}))
		require.NoError(t, s.Stage(ctx, p1, history.Metadata{Description: "  ", Properties: map[string]any{"b": "2"}}))

		md, err := s.Pending(ctx, p1)
		require.NoError(t, err)
		assert.Equal(t, "second", md.Description)
		assert.Equal(t, map[string]any{"b": "2"}, md.Properties)
		assert.False(t, md.KeepEmpty)
	})

	t.Run("empty metadata is ignored", func(t *testing.T) {
		s := newStager(t)
		require.NoError(t, s.Stage(ctx, p1, history.Metadata{Description: "   ", Properties: map[string]any{}}))
		md, err := s.Pending(ctx, p1)
		require.NoError(t, err)
		assert.True(t, md.IsEmpty())
	})

	t.Run("kept empty values survive", func(t *testing.T) {
		s := newStager(t)
		require.NoError(t, s.Stage(ctx, p1, history.Metadata{Properties: map[string]any{}, KeepEmpty: true}))

		md, err := s.ConsumeAndClear(ctx, p1)
		require.NoError(t, err)
		assert.True(t, md.KeepEmpty)
		assert.NotNil(t, md.Properties)
		assert.Empty(t, md.Properties)
		assert.False(t, md.IsEmpty())
	})

	t.Run("invalid reference", func(t *testing.T) {
		s := newStager(t)
		err := s.Stage(ctx, state.Ref("payment", ""), history.Metadata{Description: "x"})
		assert.ErrorIs(t, err, state.ErrInvalidModelRef)
	})
}

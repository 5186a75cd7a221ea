package history_test

import (
	"testing"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/storetest"
)

func TestMemoryStorage(t *testing.T) {
	t.Parallel()
	storetest.HistoryStorage(t, func(*testing.T) history.Storage {
		return history.NewMemoryStorage()
	})
}

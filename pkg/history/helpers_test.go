package history_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/state"
)

// MockStorage implements history.Storage without Counter.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, rec history.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStorage) Query(ctx context.Context, criteria history.Criteria) ([]history.Record, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]history.Record), args.Error(1)
}

func (m *MockStorage) Annotate(ctx context.Context, id uuid.UUID, md history.Metadata, at time.Time) error {
	args := m.Called(ctx, id, md, at)
	return args.Error(0)
}

// MockStager implements history.Stager.
type MockStager struct {
	mock.Mock
}

func (m *MockStager) Stage(ctx context.Context, ref state.ModelRef, md history.Metadata) error {
	return m.Called(ctx, ref, md).Error(0)
}

func (m *MockStager) Pending(ctx context.Context, ref state.ModelRef) (history.Metadata, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(history.Metadata), args.Error(1)
}

func (m *MockStager) ConsumeAndClear(ctx context.Context, ref state.ModelRef) (history.Metadata, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(history.Metadata), args.Error(1)
}

type observerMock struct {
	mock.Mock
}

func (m *observerMock) Recorded(ctx context.Context, rec history.Record) { m.Called(ctx, rec) }
func (m *observerMock) Skipped(ctx context.Context, c history.Commit)    { m.Called(ctx, c) }
func (m *observerMock) Failed(ctx context.Context, c history.Commit, err error) {
	m.Called(ctx, c, err)
}

type paymentState string

func (s paymentState) Name() string { return string(s) }

const (
	pending  paymentState = "pending"
	approved paymentState = "approved"
)

var paymentRef = state.Ref("payment", "p-1")

func strPtr(s string) *string { return &s }

package history

import (
	"context"

	"github.com/dmitrymomot/statekit/pkg/state"
)

// Reader queries stored history.
type Reader struct {
	storage  Storage
	registry *state.Registry
}

// NewReader creates a reader. The registry is optional and only needed by Model.
// Panics if storage is nil.
func NewReader(storage Storage, registry *state.Registry) *Reader {
	if storage == nil {
		panic("history: storage cannot be nil")
	}
	return &Reader{storage: storage, registry: registry}
}

// Find returns the records matching the criteria.
func (r *Reader) Find(ctx context.Context, criteria Criteria) ([]Record, error) {
	return r.storage.Query(ctx, criteria)
}

// ForModel returns the full history of an entity, oldest first.
func (r *Reader) ForModel(ctx context.Context, ref state.ModelRef) ([]Record, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return r.storage.Query(ctx, Criteria{Model: ref, Order: OrderAsc})
}

// Latest returns the most recent record of an entity or ErrRecordNotFound.
func (r *Reader) Latest(ctx context.Context, ref state.ModelRef) (*Record, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	list, err := r.storage.Query(ctx, Criteria{Model: ref, Order: OrderDesc, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrRecordNotFound
	}
	return &list[0], nil
}

// Count returns the number of records matching the criteria.
// Storages implementing Counter count natively; others are queried in full.
func (r *Reader) Count(ctx context.Context, criteria Criteria) (int64, error) {
	if counter, ok := r.storage.(Counter); ok {
		return counter.Count(ctx, criteria)
	}

	criteria.Limit, criteria.Offset = 0, 0
	list, err := r.storage.Query(ctx, criteria)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// Model loads the entity a record belongs to through the registry loaders.
func (r *Reader) Model(ctx context.Context, rec Record) (any, error) {
	if r.registry == nil {
		return nil, state.ErrLoaderNotRegistered
	}
	return r.registry.Load(ctx, rec.Model)
}

package transition

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/state"
)

// Catalog registers and lists the allowed transitions of every model type.
type Catalog struct {
	store CatalogStore
	codec *state.Codec
	opts  options
}

// NewCatalog creates a catalog. Panics if store or codec is nil.
func NewCatalog(store CatalogStore, codec *state.Codec, opts ...Option) *Catalog {
	if store == nil {
		panic("transition: catalog store cannot be nil")
	}
	if codec == nil {
		panic("transition: codec cannot be nil")
	}
	return &Catalog{
		store: store,
		codec: codec,
		opts:  newOptions(opts),
	}
}

// Register adds a transition. Both states must belong to the model type's enum.
// Registering an existing triple fails with ErrDuplicate.
func (c *Catalog) Register(ctx context.Context, modelType state.ModelType, from, to any) (*Transition, error) {
	fromToken, err := c.codec.EncodeFor(modelType, from)
	if err != nil {
		return nil, fmt.Errorf("from state: %w", err)
	}
	toToken, err := c.codec.EncodeFor(modelType, to)
	if err != nil {
		return nil, fmt.Errorf("to state: %w", err)
	}

	now := c.opts.now()
	t := &Transition{
		ID:        uuid.New(),
		ModelType: modelType,
		FromState: fromToken,
		ToState:   toToken,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.store.CreateTransition(ctx, t); err != nil {
		if errors.Is(err, ErrDuplicateTransition) {
			return nil, NewErrDuplicate(modelType, fromToken, toToken)
		}
		return nil, fmt.Errorf("create transition: %w", err)
	}

	c.opts.logger.DebugContext(ctx, "transition registered",
		logger.Transition(string(modelType), fromToken, toToken),
	)

	return t, nil
}

// List returns the transitions of a model type leaving the given state.
func (c *Catalog) List(ctx context.Context, modelType state.ModelType, from any) ([]Transition, error) {
	fromToken, err := c.codec.EncodeFor(modelType, from)
	if err != nil {
		return nil, err
	}
	return c.store.ListTransitions(ctx, Query{ModelType: modelType, FromState: fromToken})
}

// ListAll returns every transition of a model type, or of all types when modelType is empty.
func (c *Catalog) ListAll(ctx context.Context, modelType state.ModelType) ([]Transition, error) {
	return c.store.ListTransitions(ctx, Query{ModelType: modelType})
}

func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*Transition, error) {
	return c.store.GetTransition(ctx, id)
}

// Find returns the transition matching the triple, or ErrTransitionNotFound.
func (c *Catalog) Find(ctx context.Context, modelType state.ModelType, from, to any) (*Transition, error) {
	fromToken, err := c.codec.EncodeFor(modelType, from)
	if err != nil {
		return nil, fmt.Errorf("from state: %w", err)
	}
	toToken, err := c.codec.EncodeFor(modelType, to)
	if err != nil {
		return nil, fmt.Errorf("to state: %w", err)
	}

	list, err := c.store.ListTransitions(ctx, Query{ModelType: modelType, FromState: fromToken})
	if err != nil {
		return nil, err
	}
	for _, t := range list {
		if t.ToState == toToken {
			return &t, nil
		}
	}
	return nil, ErrTransitionNotFound
}

// Delete removes a transition and every grant attached to it.
func (c *Catalog) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.store.DeleteTransition(ctx, id); err != nil {
		return err
	}
	c.opts.logger.DebugContext(ctx, "transition deleted", logger.TransitionID(id.String()))
	return nil
}

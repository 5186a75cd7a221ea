package state

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Loader fetches the entity behind a ModelRef id, e.g. to resolve the
// subject of a history record.
type Loader func(ctx context.Context, id string) (any, error)

// Option configures a Registry during construction.
type Option func(*Registry) error

// Registry maps every model type to its state enum. It is built once at
// startup and never mutated afterwards, so lookups need no locking.
type Registry struct {
	enums   map[ModelType]Enum
	loaders map[ModelType]Loader
}

// NewRegistry creates a registry from the given options.
func NewRegistry(opts ...Option) (*Registry, error) {
	r := &Registry{
		enums:   make(map[ModelType]Enum),
		loaders: make(map[ModelType]Loader),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	// Loaders may be declared before their model; check once everything is applied.
	for t := range r.loaders {
		if _, ok := r.enums[t]; !ok {
			return nil, errors.Join(ErrInvalidModelType, NewErrUnresolvableStateEnum(t))
		}
	}

	return r, nil
}

// MustNewRegistry creates a registry and panics if any option fails to apply.
func MustNewRegistry(opts ...Option) *Registry {
	r, err := NewRegistry(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state registry: %v", err))
	}
	return r
}

// WithModel registers the state enum of a model type.
func WithModel(modelType ModelType, enum Enum) Option {
	return func(r *Registry) error {
		if strings.TrimSpace(string(modelType)) == "" {
			return ErrInvalidModelType
		}
		if enum.Len() == 0 {
			return fmt.Errorf("%w: model type '%s'", ErrEmptyEnum, modelType)
		}
		if _, exists := r.enums[modelType]; exists {
			return fmt.Errorf("%w: '%s'", ErrModelAlreadyRegistered, modelType)
		}
		r.enums[modelType] = enum
		return nil
	}
}

// WithStates is a shorthand for WithModel(modelType, MustNewEnum(values...))
// that reports enum errors instead of panicking.
func WithStates(modelType ModelType, values ...State) Option {
	return func(r *Registry) error {
		enum, err := NewEnum(values...)
		if err != nil {
			return fmt.Errorf("model type '%s': %w", modelType, err)
		}
		return WithModel(modelType, enum)(r)
	}
}

// WithLoader registers the function used to load entities of a model type.
func WithLoader(modelType ModelType, loader Loader) Option {
	return func(r *Registry) error {
		if strings.TrimSpace(string(modelType)) == "" || loader == nil {
			return ErrInvalidModelType
		}
		r.loaders[modelType] = loader
		return nil
	}
}

// Resolve returns the enum registered for a model type.
func (r *Registry) Resolve(modelType ModelType) (Enum, error) {
	enum, ok := r.enums[modelType]
	if !ok {
		return Enum{}, NewErrUnresolvableStateEnum(modelType)
	}
	return enum, nil
}

func (r *Registry) Has(modelType ModelType) bool {
	_, ok := r.enums[modelType]
	return ok
}

// ModelTypes returns the registered model types in lexical order.
func (r *Registry) ModelTypes() []ModelType {
	return slices.Sorted(maps.Keys(r.enums))
}

// Load resolves the entity a reference points to using the registered loader.
func (r *Registry) Load(ctx context.Context, ref ModelRef) (any, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	loader, ok := r.loaders[ref.Type]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrLoaderNotRegistered, ref.Type)
	}
	return loader(ctx, ref.ID)
}

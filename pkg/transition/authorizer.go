package transition

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/state"
)

// Authorizer answers which transitions an actor may perform on an entity.
type Authorizer struct {
	store GrantStore
	codec *state.Codec
	opts  options
}

// NewAuthorizer creates an authorizer. Panics if store or codec is nil.
func NewAuthorizer(store GrantStore, codec *state.Codec, opts ...Option) *Authorizer {
	if store == nil {
		panic("transition: grant store cannot be nil")
	}
	if codec == nil {
		panic("transition: codec cannot be nil")
	}
	return &Authorizer{
		store: store,
		codec: codec,
		opts:  newOptions(opts),
	}
}

// Available returns the transitions leaving the entity's current state that
// are granted to the actor directly or through any of its roles. A nil actor
// falls back to the one stored in ctx. Without an actor the result is empty.
// The result is ordered by target state, then id.
func (a *Authorizer) Available(ctx context.Context, entity Entity, actor Actor) ([]Transition, error) {
	if entity == nil {
		return nil, ErrNilEntity
	}
	ref := entity.ModelRef()

	current, err := a.currentState(ref.Type, entity.State())
	if err != nil {
		return nil, err
	}
	q := Query{ModelType: ref.Type, FromState: current}

	if isNilActor(actor) {
		actor, _ = ActorFromContext(ctx)
	}
	if isNilActor(actor) || actor.ActorID() == "" {
		a.observeAvailability(ctx, q, true, 0)
		return []Transition{}, nil
	}
	if current == "" {
		a.observeAvailability(ctx, q, false, 0)
		return []Transition{}, nil
	}

	principals, err := a.principalsOf(ctx, actor)
	if err != nil {
		return nil, err
	}

	granted, err := a.store.ListGranted(ctx, q, principals)
	if err != nil {
		return nil, fmt.Errorf("list granted transitions: %w", err)
	}
	slices.SortFunc(granted, func(x, y Transition) int {
		if c := cmp.Compare(x.ToState, y.ToState); c != 0 {
			return c
		}
		return cmp.Compare(x.ID.String(), y.ID.String())
	})

	a.observeAvailability(ctx, q, false, len(granted))
	return granted, nil
}

// Authorize returns ErrUnauthorizedActor unless the actor may move the entity
// into the given state.
func (a *Authorizer) Authorize(ctx context.Context, entity Entity, actor Actor, to any) error {
	toToken, err := state.Encode(to)
	if err != nil {
		return err
	}

	available, err := a.Available(ctx, entity, actor)
	if err != nil {
		return err
	}

	ref := entity.ModelRef()
	current, _ := state.Encode(entity.State())
	q := Query{ModelType: ref.Type, FromState: current}
	for _, t := range available {
		if t.ToState == toToken {
			a.observeDecision(ctx, q, toToken, true)
			return nil
		}
	}

	a.observeDecision(ctx, q, toToken, false)
	a.opts.logger.DebugContext(ctx, "transition denied",
		logger.ModelRef(string(ref.Type), ref.ID),
		logger.State(toToken),
	)
	return fmt.Errorf("%w: %s to '%s'", ErrUnauthorizedActor, ref, toToken)
}

// Can reports whether Authorize would succeed.
func (a *Authorizer) Can(ctx context.Context, entity Entity, actor Actor, to any) bool {
	return a.Authorize(ctx, entity, actor, to) == nil
}

func (a *Authorizer) currentState(modelType state.ModelType, current state.State) (string, error) {
	token, err := state.Encode(current)
	if err != nil {
		return "", err
	}
	// Decoding validates the token against the model's enum.
	if _, err := a.codec.Decode(modelType, token); err != nil {
		return "", err
	}
	return token, nil
}

func (a *Authorizer) principalsOf(ctx context.Context, actor Actor) ([]Principal, error) {
	principals := []Principal{a.opts.config.User(actor.ActorID())}

	var (
		roles []string
		err   error
	)
	switch {
	case isRoleHolder(actor):
		roles, err = actor.(RoleHolder).RoleIDs(ctx)
	case a.opts.roleResolver != nil:
		roles, err = a.opts.roleResolver(ctx, actor)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve roles of actor '%s': %w", actor.ActorID(), err)
	}

	for _, r := range roles {
		if r == "" {
			continue
		}
		principals = append(principals, a.opts.config.Role(r))
	}
	return principals, nil
}

func isRoleHolder(actor Actor) bool {
	_, ok := actor.(RoleHolder)
	return ok
}

func (a *Authorizer) observeAvailability(ctx context.Context, q Query, anonymous bool, n int) {
	if a.opts.observer != nil {
		a.opts.observer.AvailabilityResolved(ctx, q, anonymous, n)
	}
}

func (a *Authorizer) observeDecision(ctx context.Context, q Query, to string, allowed bool) {
	if a.opts.observer != nil {
		a.opts.observer.AuthorizationDecided(ctx, q, to, allowed)
	}
}

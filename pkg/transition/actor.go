package transition

import (
	"context"
	"reflect"

	"github.com/dmitrymomot/statekit/pkg/state"
)

// Entity is a host model instance whose state can change.
type Entity interface {
	ModelRef() state.ModelRef
	State() state.State
}

// Actor identifies who is asking for a transition. An Actor holding a nil
// pointer is treated as no actor at all.
type Actor interface {
	ActorID() string
}

// RoleHolder is implemented by actors that know their own role ids.
type RoleHolder interface {
	RoleIDs(ctx context.Context) ([]string, error)
}

// UserID is the simplest Actor: a bare user id.
type UserID string

func (u UserID) ActorID() string {
	return string(u)
}

// actorCtxKey is the context key for storing the current actor.
type actorCtxKey struct{}

// WithActor stores the current actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// ActorFromContext retrieves the current actor from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(Actor)
	if !ok || isNilActor(actor) {
		return nil, false
	}
	return actor, true
}

// isNilActor reports a nil interface or one wrapping a nil value.
func isNilActor(actor Actor) bool {
	if actor == nil {
		return true
	}
	v := reflect.ValueOf(actor)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// ActorIDFromContext returns the id of the current actor. Its signature
// matches the history recorder's actor extractor.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.ActorID() == "" {
		return "", false
	}
	return actor.ActorID(), true
}

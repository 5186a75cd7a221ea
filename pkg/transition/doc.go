// Package transition keeps the catalog of allowed state transitions per model
// type, the grants binding each transition to users and roles, and the
// authorizer that combines both with an entity's current state.
//
// A transition is a (model type, from, to) triple registered once:
//
//	catalog := transition.NewCatalog(store, codec)
//	t, err := catalog.Register(ctx, "payment", Pending, Approved)
//
// Grants attach principals to a transition. Principal tags default to
// "user" and "role" and can be changed through Config:
//
//	index := transition.NewIndex(store)
//	err = index.Grant(ctx, t.ID, index.Role("accountant"))
//
// The authorizer returns the union of transitions granted to the actor and to
// any of its roles, restricted to the entity's model type and current state:
//
//	authz := transition.NewAuthorizer(store, codec)
//	available, err := authz.Available(ctx, payment, transition.UserID("42"))
//	err = authz.Authorize(ctx, payment, actor, Approved) // ErrUnauthorizedActor when not granted
//
// An absent actor never raises an error; it simply has no transitions.
//
// MemoryStore implements Store for tests; see the pgstore and sqlitestore
// packages for durable backends.
package transition

package transition

import (
	"context"

	"github.com/google/uuid"
)

// CatalogStore persists transition definitions.
type CatalogStore interface {
	// CreateTransition inserts a transition. Returns ErrDuplicateTransition
	// when the (model type, from, to) triple already exists.
	CreateTransition(ctx context.Context, t *Transition) error

	// GetTransition returns ErrTransitionNotFound for unknown ids.
	GetTransition(ctx context.Context, id uuid.UUID) (*Transition, error)

	// ListTransitions returns matching transitions ordered by creation time, then id.
	ListTransitions(ctx context.Context, q Query) ([]Transition, error)

	// DeleteTransition removes a transition together with all of its grants.
	DeleteTransition(ctx context.Context, id uuid.UUID) error
}

// GrantStore persists the transition-to-principal pivot.
type GrantStore interface {
	// AttachPrincipal is idempotent. Returns ErrTransitionNotFound for unknown transitions.
	AttachPrincipal(ctx context.Context, transitionID uuid.UUID, p Principal) error

	// DetachPrincipal is a no-op when the grant does not exist.
	DetachPrincipal(ctx context.Context, transitionID uuid.UUID, p Principal) error

	ListPrincipals(ctx context.Context, transitionID uuid.UUID) ([]Principal, error)

	// ListGranted returns the transitions matching q that are granted to at
	// least one of the principals, without duplicates.
	ListGranted(ctx context.Context, q Query, principals []Principal) ([]Transition, error)
}

// Store combines both halves; storage backends implement it in full.
type Store interface {
	CatalogStore
	GrantStore
}

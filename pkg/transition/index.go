package transition

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/statekit/pkg/logger"
)

// Index grants transitions to users and roles.
type Index struct {
	store GrantStore
	opts  options
}

// NewIndex creates an index. Panics if store is nil.
func NewIndex(store GrantStore, opts ...Option) *Index {
	if store == nil {
		panic("transition: grant store cannot be nil")
	}
	return &Index{
		store: store,
		opts:  newOptions(opts),
	}
}

// User builds a user principal with the configured tag.
func (i *Index) User(id string) Principal {
	return i.opts.config.User(id)
}

// Role builds a role principal with the configured tag.
func (i *Index) Role(id string) Principal {
	return i.opts.config.Role(id)
}

// Grant attaches a principal to a transition. Granting twice has no effect.
func (i *Index) Grant(ctx context.Context, transitionID uuid.UUID, p Principal) error {
	if err := i.validate(p); err != nil {
		return err
	}
	if err := i.store.AttachPrincipal(ctx, transitionID, p); err != nil {
		return fmt.Errorf("grant %s: %w", p, err)
	}
	i.opts.logger.DebugContext(ctx, "transition granted",
		logger.TransitionID(transitionID.String()),
		logger.Principal(string(p.Type), p.ID),
	)
	return nil
}

// Revoke detaches a principal from a transition. Revoking a missing grant is a no-op.
func (i *Index) Revoke(ctx context.Context, transitionID uuid.UUID, p Principal) error {
	if err := i.validate(p); err != nil {
		return err
	}
	if err := i.store.DetachPrincipal(ctx, transitionID, p); err != nil {
		return fmt.Errorf("revoke %s: %w", p, err)
	}
	i.opts.logger.DebugContext(ctx, "transition revoked",
		logger.TransitionID(transitionID.String()),
		logger.Principal(string(p.Type), p.ID),
	)
	return nil
}

// PrincipalsFor returns the users and roles granted a transition.
// Pivot rows of other kinds are ignored.
func (i *Index) PrincipalsFor(ctx context.Context, transitionID uuid.UUID) (Principals, error) {
	list, err := i.store.ListPrincipals(ctx, transitionID)
	if err != nil {
		return Principals{}, err
	}

	out := Principals{Users: []string{}, Roles: []string{}}
	for _, p := range list {
		switch string(p.Type) {
		case i.opts.config.UserModel:
			out.Users = append(out.Users, p.ID)
		case i.opts.config.RoleModel:
			out.Roles = append(out.Roles, p.ID)
		}
	}
	return out, nil
}

// TransitionsFor returns every transition granted directly to a principal.
func (i *Index) TransitionsFor(ctx context.Context, p Principal) ([]Transition, error) {
	if err := i.validate(p); err != nil {
		return nil, err
	}
	return i.store.ListGranted(ctx, Query{}, []Principal{p})
}

func (i *Index) validate(p Principal) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: blank id", ErrInvalidPrincipal)
	}
	switch string(p.Type) {
	case i.opts.config.UserModel, i.opts.config.RoleModel:
		return nil
	default:
		return fmt.Errorf("%w: unknown kind '%s'", ErrInvalidPrincipal, p.Type)
	}
}

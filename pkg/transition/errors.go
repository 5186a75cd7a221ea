package transition

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/statekit/pkg/state"
)

var (
	// ErrDuplicateTransition is returned when a (model type, from, to) triple already exists.
	ErrDuplicateTransition = errors.New("transition.duplicate")

	// ErrTransitionNotFound is returned when a transition id does not exist.
	ErrTransitionNotFound = errors.New("transition.not_found")

	// ErrInvalidPrincipal is returned for principals of an unknown kind or with a blank id.
	ErrInvalidPrincipal = errors.New("transition.invalid_principal")

	// ErrUnauthorizedActor is returned when the actor may not perform the requested transition.
	ErrUnauthorizedActor = errors.New("transition.unauthorized_actor")

	// ErrNilEntity is returned when authorization is asked about a nil entity.
	ErrNilEntity = errors.New("transition.nil_entity")

	// ErrInvalidDefinition is returned when a seed definition cannot be applied.
	ErrInvalidDefinition = errors.New("transition.invalid_definition")
)

// ErrDuplicate describes a rejected registration of an existing triple.
type ErrDuplicate struct {
	ModelType state.ModelType
	FromState string
	ToState   string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("transition '%s' -> '%s' already registered for model type '%s'", e.FromState, e.ToState, e.ModelType)
}

// Unwrap allows errors.Is(err, ErrDuplicateTransition).
func (e *ErrDuplicate) Unwrap() error {
	return ErrDuplicateTransition
}

func NewErrDuplicate(modelType state.ModelType, from, to string) *ErrDuplicate {
	return &ErrDuplicate{
		ModelType: modelType,
		FromState: from,
		ToState:   to,
	}
}

func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicateTransition)
}

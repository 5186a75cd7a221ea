package state

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyEnum              = errors.New("state.empty_enum")
	ErrInvalidState           = errors.New("state.invalid_state")
	ErrDuplicateState         = errors.New("state.duplicate_state")
	ErrBlankState             = errors.New("state.blank_state")
	ErrUnsupportedStateValue  = errors.New("state.unsupported_value")
	ErrInvalidModelType       = errors.New("state.invalid_model_type")
	ErrInvalidModelRef        = errors.New("state.invalid_model_ref")
	ErrModelAlreadyRegistered = errors.New("state.model_already_registered")
	ErrLoaderNotRegistered    = errors.New("state.loader_not_registered")
	ErrNilRegistry            = errors.New("state.nil_registry")
)

// ErrUnknownStateToken indicates a stored token that is not a member of the
// model type's enum. Usually a sign of data corruption or a removed enum value.
type ErrUnknownStateToken struct {
	ModelType ModelType
	Token     string
}

func (e *ErrUnknownStateToken) Error() string {
	return fmt.Sprintf("unknown state token '%s' for model type '%s'", e.Token, e.ModelType)
}

func NewErrUnknownStateToken(modelType ModelType, token string) *ErrUnknownStateToken {
	return &ErrUnknownStateToken{
		ModelType: modelType,
		Token:     token,
	}
}

// ErrUnresolvableStateEnum indicates a model type with no registered enum.
type ErrUnresolvableStateEnum struct {
	ModelType ModelType
}

func (e *ErrUnresolvableStateEnum) Error() string {
	return fmt.Sprintf("no state enum registered for model type '%s'", e.ModelType)
}

func NewErrUnresolvableStateEnum(modelType ModelType) *ErrUnresolvableStateEnum {
	return &ErrUnresolvableStateEnum{ModelType: modelType}
}

func IsUnknownStateTokenError(err error) bool {
	var e *ErrUnknownStateToken
	return errors.As(err, &e)
}

func IsUnresolvableStateEnumError(err error) bool {
	var e *ErrUnresolvableStateEnum
	return errors.As(err, &e)
}

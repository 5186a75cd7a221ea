package state

import (
	"fmt"
	"strings"
)

// Codec converts between stored state tokens and typed enum values.
type Codec struct {
	registry *Registry
}

// NewCodec creates a codec over the given registry.
// Panics if registry is nil since every decode depends on it.
func NewCodec(registry *Registry) *Codec {
	if registry == nil {
		panic(ErrNilRegistry)
	}
	return &Codec{registry: registry}
}

func (c *Codec) Registry() *Registry {
	return c.registry
}

// Decode turns a stored token into the enum value of the given model type.
// A blank token decodes to a nil State with no error.
func (c *Codec) Decode(modelType ModelType, token string) (State, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}

	enum, err := c.registry.Resolve(modelType)
	if err != nil {
		return nil, err
	}

	v, ok := enum.Lookup(token)
	if !ok {
		return nil, NewErrUnknownStateToken(modelType, token)
	}
	return v, nil
}

// DecodePair decodes a from/to token pair of the same model type.
func (c *Codec) DecodePair(modelType ModelType, from, to string) (State, State, error) {
	fromState, err := c.Decode(modelType, from)
	if err != nil {
		return nil, nil, err
	}
	toState, err := c.Decode(modelType, to)
	if err != nil {
		return nil, nil, err
	}
	return fromState, toState, nil
}

// Encode turns a state value into its token. See the package-level Encode.
func (c *Codec) Encode(v any) (string, error) {
	return Encode(v)
}

// EncodeFor encodes v and checks that the token is a member of the enum of
// the given model type. Blank values are rejected.
func (c *Codec) EncodeFor(modelType ModelType, v any) (string, error) {
	token, err := Encode(v)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrBlankState
	}

	enum, err := c.registry.Resolve(modelType)
	if err != nil {
		return "", err
	}
	if !enum.Has(token) {
		return "", NewErrUnknownStateToken(modelType, token)
	}
	return token, nil
}

// Encode turns an enum value or a raw string into its token. A nil value
// encodes to the empty token. Any other type is rejected.
func Encode(v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case State:
		return s.Name(), nil
	case string:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedStateValue, v)
	}
}

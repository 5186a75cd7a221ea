package state

import (
	"fmt"
	"slices"
	"strings"
)

// Enum is the closed set of legal states for one model type.
// The zero value is empty and resolves nothing.
type Enum struct {
	values map[string]State
	tokens []string
}

// NewEnum builds an enum from its values in declaration order.
// Tokens must be non-blank and unique.
func NewEnum(values ...State) (Enum, error) {
	if len(values) == 0 {
		return Enum{}, ErrEmptyEnum
	}

	e := Enum{
		values: make(map[string]State, len(values)),
		tokens: make([]string, 0, len(values)),
	}
	for _, v := range values {
		if v == nil || strings.TrimSpace(v.Name()) == "" {
			return Enum{}, ErrInvalidState
		}
		token := v.Name()
		if _, exists := e.values[token]; exists {
			return Enum{}, fmt.Errorf("%w: '%s'", ErrDuplicateState, token)
		}
		e.values[token] = v
		e.tokens = append(e.tokens, token)
	}

	return e, nil
}

// MustNewEnum is like NewEnum but panics on error.
func MustNewEnum(values ...State) Enum {
	e, err := NewEnum(values...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state enum: %v", err))
	}
	return e
}

// StringEnum builds an enum of StringState values.
func StringEnum(tokens ...string) (Enum, error) {
	values := make([]State, 0, len(tokens))
	for _, t := range tokens {
		values = append(values, StringState(t))
	}
	return NewEnum(values...)
}

// Lookup returns the enum value for a token.
func (e Enum) Lookup(token string) (State, bool) {
	v, ok := e.values[token]
	return v, ok
}

func (e Enum) Has(token string) bool {
	_, ok := e.values[token]
	return ok
}

// Tokens returns the tokens in declaration order.
func (e Enum) Tokens() []string {
	return slices.Clone(e.tokens)
}

func (e Enum) Len() int {
	return len(e.tokens)
}

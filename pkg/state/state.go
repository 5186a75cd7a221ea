package state

import "strings"

// State represents a single value of a model's state enum.
type State interface {
	Name() string
}

// StringState provides a simple string-based state implementation for hosts
// that keep states as plain strings.
type StringState string

func (s StringState) Name() string {
	return string(s)
}

// ModelType tags a transitionable entity type, e.g. "payment".
type ModelType string

func (t ModelType) String() string {
	return string(t)
}

// ModelRef is a polymorphic reference to a single entity instance.
type ModelRef struct {
	Type ModelType `json:"model_type"`
	ID   string    `json:"model_id"`
}

// Ref builds a ModelRef.
func Ref(modelType ModelType, id string) ModelRef {
	return ModelRef{Type: modelType, ID: id}
}

// IsZero reports whether neither the type nor the id is set.
func (r ModelRef) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

// Validate ensures both parts of the reference are present.
func (r ModelRef) Validate() error {
	if strings.TrimSpace(string(r.Type)) == "" || strings.TrimSpace(r.ID) == "" {
		return ErrInvalidModelRef
	}
	return nil
}

func (r ModelRef) String() string {
	return string(r.Type) + ":" + r.ID
}

package transition

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/statekit/pkg/state"
)

// Transition is one allowed edge of a model type's state graph.
type Transition struct {
	ID        uuid.UUID       `json:"id"`
	ModelType state.ModelType `json:"model_type"`
	FromState string          `json:"from_state"`
	ToState   string          `json:"to_state"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// States decodes both endpoints through the codec.
func (t Transition) States(codec *state.Codec) (from, to state.State, err error) {
	return codec.DecodePair(t.ModelType, t.FromState, t.ToState)
}

func (t Transition) String() string {
	return fmt.Sprintf("%s: %s -> %s", t.ModelType, t.FromState, t.ToState)
}

// PrincipalType tags the kind of a principal, e.g. "user" or "role".
type PrincipalType string

// Principal is a user or a role that can be granted transitions.
type Principal struct {
	Type PrincipalType `json:"model_type"`
	ID   string        `json:"model_id"`
}

func (p Principal) String() string {
	return string(p.Type) + ":" + p.ID
}

// Principals groups the ids granted a transition by kind.
type Principals struct {
	Users []string `json:"users"`
	Roles []string `json:"roles"`
}

// Query narrows catalog listings. Empty fields match everything.
type Query struct {
	ModelType state.ModelType
	FromState string
}

func (q Query) matches(t Transition) bool {
	if q.ModelType != "" && t.ModelType != q.ModelType {
		return false
	}
	if q.FromState != "" && t.FromState != q.FromState {
		return false
	}
	return true
}

package history

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/statekit/pkg/state"
)

// Record is a single entry of an entity's transition history.
type Record struct {
	ID               uuid.UUID      `json:"id"`
	Model            state.ModelRef `json:"model"`
	FromState        string         `json:"from_state"`
	ToState          string         `json:"to_state"`
	Description      *string        `json:"description"`
	CustomProperties map[string]any `json:"custom_properties"`
	CreatedBy        *string        `json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// States decodes both tokens through the codec.
func (r Record) States(codec *state.Codec) (from, to state.State, err error) {
	return codec.DecodePair(r.Model.Type, r.FromState, r.ToState)
}

// Commit describes a persisted state mutation of one entity.
type Commit struct {
	Model     state.ModelRef
	FromState string
	ToState   string
}

// Changed reports whether the state value actually moved.
func (c Commit) Changed() bool {
	return c.FromState != c.ToState
}

// Metadata is the optional annotation attached to the next history record
// of an entity.
//
// Blank descriptions and empty property bags count as absent. Set KeepEmpty
// to record them anyway: the commit is then recorded even without a state
// change, and a non-nil empty Properties map is stored as an empty object.
type Metadata struct {
	Description string         `json:"description,omitempty"`
	Properties  map[string]any `json:"custom_properties,omitempty"`
	KeepEmpty   bool           `json:"keep_empty,omitempty"`
}

func (m Metadata) HasDescription() bool {
	return strings.TrimSpace(m.Description) != ""
}

func (m Metadata) HasProperties() bool {
	return len(m.Properties) > 0
}

// IsEmpty reports whether the metadata would leave no trace in a record.
func (m Metadata) IsEmpty() bool {
	return !m.HasDescription() && !m.HasProperties() && !m.KeepEmpty
}

// Merge returns m overlaid with the present values of other. Absent values
// of other never clear what m holds.
func (m Metadata) Merge(other Metadata) Metadata {
	out := Metadata{
		Description: m.Description,
		Properties:  cloneProperties(m.Properties),
		KeepEmpty:   m.KeepEmpty || other.KeepEmpty,
	}
	if other.HasDescription() {
		out.Description = other.Description
	}
	if other.HasProperties() || (other.KeepEmpty && other.Properties != nil) {
		out.Properties = cloneProperties(other.Properties)
	}
	return out
}

// StoredDescription returns the value to store in the description column.
func (m Metadata) StoredDescription() *string {
	if !m.HasDescription() {
		return nil
	}
	d := m.Description
	return &d
}

// StoredProperties returns the value to store in the custom_properties column.
func (m Metadata) StoredProperties() map[string]any {
	if m.HasProperties() || (m.KeepEmpty && m.Properties != nil) {
		return cloneProperties(m.Properties)
	}
	return nil
}

// MetadataOption sets metadata for TransitionTo.
type MetadataOption func(*Metadata)

func WithDescription(description string) MetadataOption {
	return func(m *Metadata) {
		m.Description = description
	}
}

func WithProperties(props map[string]any) MetadataOption {
	return func(m *Metadata) {
		m.Properties = props
	}
}

// WithEmptyKept marks blank metadata as present.
func WithEmptyKept() MetadataOption {
	return func(m *Metadata) {
		m.KeepEmpty = true
	}
}

// NewMetadata builds metadata from options.
func NewMetadata(opts ...MetadataOption) Metadata {
	var m Metadata
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// cloneProperties copies a property bag including nested maps and slices.
// Scalars and other values are shared.
func cloneProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneProperties(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]string:
		return maps.Clone(v)
	case []string:
		return slices.Clone(v)
	default:
		return v
	}
}

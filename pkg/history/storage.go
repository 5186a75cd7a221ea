package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/statekit/pkg/state"
)

// Order sets the sort direction of a query by creation time.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Storage persists history records.
type Storage interface {
	// Store appends a record.
	Store(ctx context.Context, rec Record) error

	// Query returns records matching the criteria ordered by creation time, then id.
	Query(ctx context.Context, criteria Criteria) ([]Record, error)

	// Annotate replaces description and custom properties of an existing record.
	// Returns ErrRecordNotFound for unknown ids.
	Annotate(ctx context.Context, id uuid.UUID, md Metadata, at time.Time) error
}

// Counter is implemented by storages that count without loading records.
type Counter interface {
	Count(ctx context.Context, criteria Criteria) (int64, error)
}

// Criteria filters history queries. Zero fields match everything.
type Criteria struct {
	Model     state.ModelRef
	ModelType state.ModelType
	FromState string
	ToState   string
	CreatedBy string
	Since     time.Time // inclusive
	Until     time.Time // exclusive
	Limit     int
	Offset    int
	Order     Order // OrderAsc when empty
}

// Matches applies every filter of the criteria except paging.
func (c Criteria) Matches(r Record) bool {
	if !c.Model.IsZero() && r.Model != c.Model {
		return false
	}
	if c.ModelType != "" && r.Model.Type != c.ModelType {
		return false
	}
	if c.FromState != "" && r.FromState != c.FromState {
		return false
	}
	if c.ToState != "" && r.ToState != c.ToState {
		return false
	}
	if c.CreatedBy != "" && (r.CreatedBy == nil || *r.CreatedBy != c.CreatedBy) {
		return false
	}
	if !c.Since.IsZero() && r.CreatedAt.Before(c.Since) {
		return false
	}
	if !c.Until.IsZero() && !r.CreatedAt.Before(c.Until) {
		return false
	}
	return true
}

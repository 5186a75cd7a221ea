package history

import (
	"context"
	"sync"

	"github.com/dmitrymomot/statekit/pkg/state"
)

// Stager holds metadata for an entity until its next committed mutation.
// It is a side table keyed by ModelRef, so entities carry no hidden fields.
type Stager interface {
	// Stage merges the present values of md into the pending metadata.
	// Blank values are ignored, never cleared.
	Stage(ctx context.Context, ref state.ModelRef, md Metadata) error

	// Pending returns the staged metadata without clearing it.
	Pending(ctx context.Context, ref state.ModelRef) (Metadata, error)

	// ConsumeAndClear returns the staged metadata and resets it to empty.
	ConsumeAndClear(ctx context.Context, ref state.ModelRef) (Metadata, error)
}

// MemoryStager is a process-local Stager.
type MemoryStager struct {
	mu      sync.Mutex
	pending map[state.ModelRef]Metadata
}

func NewMemoryStager() *MemoryStager {
	return &MemoryStager{
		pending: make(map[state.ModelRef]Metadata),
	}
}

func (s *MemoryStager) Stage(_ context.Context, ref state.ModelRef, md Metadata) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if md.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[ref] = s.pending[ref].Merge(md)
	return nil
}

func (s *MemoryStager) Pending(_ context.Context, ref state.ModelRef) (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[ref].Merge(Metadata{}), nil
}

func (s *MemoryStager) ConsumeAndClear(_ context.Context, ref state.ModelRef) (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	md := s.pending[ref]
	delete(s.pending, ref)
	return md, nil
}

// Len returns the number of entities with staged metadata.
func (s *MemoryStager) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

package transition

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

type tripleKey struct {
	modelType string
	from      string
	to        string
}

// MemoryStore is a thread-safe in-memory Store, useful for tests and
// single-process deployments.
type MemoryStore struct {
	mu          sync.RWMutex
	transitions map[uuid.UUID]Transition
	triples     map[tripleKey]uuid.UUID
	grants      map[uuid.UUID][]Principal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transitions: make(map[uuid.UUID]Transition),
		triples:     make(map[tripleKey]uuid.UUID),
		grants:      make(map[uuid.UUID][]Principal),
	}
}

func (s *MemoryStore) CreateTransition(_ context.Context, t *Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tripleKey{modelType: string(t.ModelType), from: t.FromState, to: t.ToState}
	if _, exists := s.triples[key]; exists {
		return ErrDuplicateTransition
	}
	if _, exists := s.transitions[t.ID]; exists {
		return ErrDuplicateTransition
	}

	s.transitions[t.ID] = *t
	s.triples[key] = t.ID
	return nil
}

func (s *MemoryStore) GetTransition(_ context.Context, id uuid.UUID) (*Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transitions[id]
	if !ok {
		return nil, ErrTransitionNotFound
	}
	return &t, nil
}

func (s *MemoryStore) ListTransitions(_ context.Context, q Query) ([]Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Transition, 0)
	for _, t := range s.transitions {
		if q.matches(t) {
			out = append(out, t)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *MemoryStore) DeleteTransition(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transitions[id]
	if !ok {
		return ErrTransitionNotFound
	}
	delete(s.transitions, id)
	delete(s.triples, tripleKey{modelType: string(t.ModelType), from: t.FromState, to: t.ToState})
	delete(s.grants, id)
	return nil
}

func (s *MemoryStore) AttachPrincipal(_ context.Context, transitionID uuid.UUID, p Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transitions[transitionID]; !ok {
		return ErrTransitionNotFound
	}
	if slices.Contains(s.grants[transitionID], p) {
		return nil
	}
	s.grants[transitionID] = append(s.grants[transitionID], p)
	return nil
}

func (s *MemoryStore) DetachPrincipal(_ context.Context, transitionID uuid.UUID, p Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grants := s.grants[transitionID]
	if i := slices.Index(grants, p); i >= 0 {
		s.grants[transitionID] = slices.Delete(slices.Clone(grants), i, i+1)
	}
	return nil
}

func (s *MemoryStore) ListPrincipals(_ context.Context, transitionID uuid.UUID) ([]Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.grants[transitionID])
	if out == nil {
		out = []Principal{}
	}
	return out, nil
}

func (s *MemoryStore) ListGranted(_ context.Context, q Query, principals []Principal) ([]Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Transition, 0)
	if len(principals) == 0 {
		return out, nil
	}
	for id, grants := range s.grants {
		t := s.transitions[id]
		if !q.matches(t) {
			continue
		}
		if slices.ContainsFunc(grants, func(g Principal) bool {
			return slices.Contains(principals, g)
		}) {
			out = append(out, t)
		}
	}
	sortByCreation(out)
	return out, nil
}

func sortByCreation(list []Transition) {
	slices.SortFunc(list, func(a, b Transition) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
}

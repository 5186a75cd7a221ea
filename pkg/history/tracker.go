package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrymomot/statekit/pkg/state"
)

// CommitFunc persists the new state of an entity.
type CommitFunc func(ctx context.Context) error

// Tracker wires a Stager to a Recorder and serialises the
// commit, record and clear sequence per entity.
type Tracker struct {
	recorder *Recorder
	stager   Stager
	locks    refLocks
}

// NewTracker creates a tracker. A nil stager falls back to a MemoryStager.
// Panics if recorder is nil.
func NewTracker(recorder *Recorder, stager Stager) *Tracker {
	if recorder == nil {
		panic("history: recorder cannot be nil")
	}
	if stager == nil {
		stager = NewMemoryStager()
	}
	return &Tracker{
		recorder: recorder,
		stager:   stager,
	}
}

// Stage merges metadata into what is pending for the entity.
func (t *Tracker) Stage(ctx context.Context, ref state.ModelRef, opts ...MetadataOption) error {
	if err := t.stager.Stage(ctx, ref, NewMetadata(opts...)); err != nil {
		return errors.Join(ErrStagingFailed, err)
	}
	return nil
}

// Pending returns the metadata staged for the entity.
func (t *Tracker) Pending(ctx context.Context, ref state.ModelRef) (Metadata, error) {
	return t.stager.Pending(ctx, ref)
}

// AfterCommit must be called once the host has persisted a mutation of the
// entity. It records history when warranted and clears the staged metadata
// in every case, including the no-op one.
func (t *Tracker) AfterCommit(ctx context.Context, ref state.ModelRef, from, to any) (*Record, error) {
	c, err := newCommit(ref, from, to)
	if err != nil {
		return nil, err
	}

	unlock := t.locks.lock(ref)
	defer unlock()

	return t.afterCommit(ctx, c, Metadata{})
}

// TransitionTo runs commit and then records the change together with the
// staged metadata and the given options, which take precedence.
//
// When commit fails nothing is recorded, metadata staged earlier stays
// pending and the options are dropped. commit must not call back into the
// tracker for the same entity.
func (t *Tracker) TransitionTo(ctx context.Context, ref state.ModelRef, from, to any, commit CommitFunc, opts ...MetadataOption) (*Record, error) {
	c, err := newCommit(ref, from, to)
	if err != nil {
		return nil, err
	}

	unlock := t.locks.lock(ref)
	defer unlock()

	if err := commit(ctx); err != nil {
		return nil, errors.Join(ErrCommitFailed, err)
	}
	return t.afterCommit(ctx, c, NewMetadata(opts...))
}

func (t *Tracker) afterCommit(ctx context.Context, c Commit, extra Metadata) (*Record, error) {
	staged, stageErr := t.stager.ConsumeAndClear(ctx, c.Model)
	md := extra
	if stageErr == nil {
		md = staged.Merge(extra)
	}

	rec, err := t.recorder.Record(ctx, c, md)
	if stageErr != nil {
		return rec, errors.Join(ErrStagingFailed, stageErr, err)
	}
	return rec, err
}

func newCommit(ref state.ModelRef, from, to any) (Commit, error) {
	if err := ref.Validate(); err != nil {
		return Commit{}, err
	}
	fromToken, err := state.Encode(from)
	if err != nil {
		return Commit{}, fmt.Errorf("from state: %w", err)
	}
	toToken, err := state.Encode(to)
	if err != nil {
		return Commit{}, fmt.Errorf("to state: %w", err)
	}
	return Commit{Model: ref, FromState: fromToken, ToState: toToken}, nil
}

// refLocks hands out one mutex per entity and forgets it once unused.
type refLocks struct {
	mu    sync.Mutex
	locks map[state.ModelRef]*refLock
}

type refLock struct {
	mu      sync.Mutex
	holders int
}

func (l *refLocks) lock(ref state.ModelRef) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[state.ModelRef]*refLock)
	}
	rl, ok := l.locks[ref]
	if !ok {
		rl = &refLock{}
		l.locks[ref] = rl
	}
	rl.holders++
	l.mu.Unlock()

	rl.mu.Lock()
	return func() {
		rl.mu.Unlock()
		l.mu.Lock()
		rl.holders--
		if rl.holders == 0 {
			delete(l.locks, ref)
		}
		l.mu.Unlock()
	}
}

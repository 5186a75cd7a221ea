package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/statekit/pkg/logger"
)

// Recorder turns committed state mutations into history records.
type Recorder struct {
	storage        Storage
	actorExtractor ActorExtractor
	observer       Observer
	logger         *slog.Logger
	now            func() time.Time
}

// NewRecorder creates a recorder. Panics if storage is nil.
func NewRecorder(storage Storage, opts ...Option) *Recorder {
	if storage == nil {
		panic("history: storage cannot be nil")
	}

	r := &Recorder{
		storage: storage,
		logger:  logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stores one history record for the commit when the state changed or
// md carries a description or properties. Otherwise it returns (nil, nil).
//
// The commit has already happened: a storage failure is returned as
// *ErrHistoryWrite and nothing is rolled back.
func (r *Recorder) Record(ctx context.Context, c Commit, md Metadata) (*Record, error) {
	if err := c.Model.Validate(); err != nil {
		return nil, err
	}

	if !c.Changed() && md.IsEmpty() {
		r.logger.DebugContext(ctx, "no-op commit skipped",
			logger.ModelRef(string(c.Model.Type), c.Model.ID),
			logger.State(c.ToState),
		)
		if r.observer != nil {
			r.observer.Skipped(ctx, c)
		}
		return nil, nil
	}

	now := r.now()
	rec := Record{
		ID:               uuid.Must(uuid.NewV7()),
		Model:            c.Model,
		FromState:        c.FromState,
		ToState:          c.ToState,
		Description:      md.StoredDescription(),
		CustomProperties: md.StoredProperties(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if r.actorExtractor != nil {
		if id, ok := r.actorExtractor(ctx); ok && id != "" {
			rec.CreatedBy = &id
		}
	}

	if err := r.storage.Store(ctx, rec); err != nil {
		werr := NewErrHistoryWrite(c, err)
		r.logger.ErrorContext(ctx, "failed to record transition",
			logger.ModelRef(string(c.Model.Type), c.Model.ID),
			logger.Transition(string(c.Model.Type), c.FromState, c.ToState),
			logger.Error(err),
		)
		if r.observer != nil {
			r.observer.Failed(ctx, c, werr)
		}
		return nil, werr
	}

	r.logger.DebugContext(ctx, "transition recorded",
		logger.HistoryID(rec.ID.String()),
		logger.ModelRef(string(c.Model.Type), c.Model.ID),
		logger.Transition(string(c.Model.Type), c.FromState, c.ToState),
	)
	if r.observer != nil {
		r.observer.Recorded(ctx, rec)
	}
	return &rec, nil
}

// Annotate corrects the description and custom properties of an existing record.
func (r *Recorder) Annotate(ctx context.Context, id uuid.UUID, md Metadata) error {
	if err := r.storage.Annotate(ctx, id, md, r.now()); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "history record annotated", logger.HistoryID(id.String()))
	return nil
}

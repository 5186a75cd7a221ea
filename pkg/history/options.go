package history

import (
	"context"
	"log/slog"
	"time"
)

// ActorExtractor returns the id of the principal performing the current mutation.
type ActorExtractor func(context.Context) (string, bool)

// Observer receives recorder outcomes, e.g. to export metrics.
type Observer interface {
	Recorded(ctx context.Context, rec Record)
	Skipped(ctx context.Context, c Commit)
	Failed(ctx context.Context, c Commit, err error)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithActorExtractor sets how created_by is resolved.
func WithActorExtractor(fn ActorExtractor) Option {
	return func(r *Recorder) {
		r.actorExtractor = fn
	}
}

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithObserver registers a recorder observer.
func WithObserver(obs Observer) Option {
	return func(r *Recorder) {
		r.observer = obs
	}
}

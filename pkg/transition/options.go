package transition

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/statekit/pkg/logger"
)

// RoleResolver returns the role ids of an actor that does not implement RoleHolder.
type RoleResolver func(ctx context.Context, actor Actor) ([]string, error)

// Observer receives authorization outcomes, e.g. to export metrics.
type Observer interface {
	AvailabilityResolved(ctx context.Context, q Query, anonymous bool, available int)
	AuthorizationDecided(ctx context.Context, q Query, toState string, allowed bool)
}

type options struct {
	logger       *slog.Logger
	now          func() time.Time
	config       Config
	roleResolver RoleResolver
	observer     Observer
}

// Option configures catalogs, indexes and authorizers.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		logger: logger.Discard(),
		now:    time.Now,
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.config = o.config.withDefaults()
	return o
}

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithConfig sets the principal tags.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithRoleResolver sets how roles are found for actors that are not RoleHolders.
func WithRoleResolver(fn RoleResolver) Option {
	return func(o *options) {
		o.roleResolver = fn
	}
}

// WithObserver registers an authorization observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

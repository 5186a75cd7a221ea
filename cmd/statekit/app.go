package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/statekit/pkg/config"
	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/pg"
	"github.com/dmitrymomot/statekit/pkg/pgstore"
	"github.com/dmitrymomot/statekit/pkg/redisstage"
	"github.com/dmitrymomot/statekit/pkg/schema"
	"github.com/dmitrymomot/statekit/pkg/sqlitestore"
	"github.com/dmitrymomot/statekit/pkg/state"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

// app holds the wired dependencies of a single command execution.
type app struct {
	cfg     appConfig
	dialect schema.Dialect
	log     *slog.Logger

	transitions transition.Store
	history     history.Storage
	stager      history.Stager

	migrate  func(context.Context) error
	rollback func(context.Context) error
	status   func(context.Context) ([]schema.MigrationStatus, error)

	probes  []probe
	closers []func()
}

// probe is a named readiness check of one backend.
type probe struct {
	name  string
	check func(context.Context) error
}

// loadConfig reads the environment, then applies flag overrides.
func loadConfig(flags *globalFlags) (appConfig, schema.Dialect, error) {
	if flags.envFile != "" {
		if err := config.LoadEnv(flags.envFile); err != nil {
			return appConfig{}, "", err
		}
	}

	// Reload, not Load: the environment may differ between executions in one process.
	var cfg appConfig
	if err := config.Reload(&cfg); err != nil {
		return appConfig{}, "", err
	}
	if flags.driver != "" {
		cfg.Driver = flags.driver
	}
	dialect, err := schema.ParseDialect(cfg.Driver)
	if err != nil {
		return appConfig{}, "", err
	}
	if flags.dsn != "" {
		switch dialect {
		case schema.Postgres:
			cfg.Postgres.ConnectionString = flags.dsn
		case schema.SQLite:
			cfg.SQLiteDSN = flags.dsn
		}
	}
	cfg.Tables = cfg.Tables.WithDefaults()
	return cfg, dialect, cfg.Tables.Validate()
}

func newLogger(cmd *cobra.Command, cfg appConfig) *slog.Logger {
	return logger.New(
		logger.WithConfig(cfg.Log),
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithContextExtractors(actorAttr),
	)
}

func actorAttr(ctx context.Context) (slog.Attr, bool) {
	id, ok := transition.ActorIDFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return logger.Actor(id), true
}

// openApp connects the configured storage backend and, when REDIS_URL is
// set, the shared metadata stager.
func openApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	ctx := cmd.Context()
	cfg, dialect, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, dialect: dialect, log: newLogger(cmd, cfg)}

	switch dialect {
	case schema.Postgres:
		err = a.openPostgres(ctx)
	case schema.SQLite:
		err = a.openSQLite(ctx)
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Redis.ConnectionURL != "" {
		client, err := redisstage.Connect(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.stager = redisstage.NewStager(client, redisstage.WithConfig(cfg.Redis))
		a.probes = append(a.probes, probe{name: "redis", check: redisstage.Healthcheck(client)})
	} else {
		a.stager = history.NewMemoryStager()
	}

	return a, nil
}

func (a *app) openPostgres(ctx context.Context) error {
	if a.cfg.Postgres.ConnectionString == "" {
		return pg.ErrEmptyConnectionString
	}
	pool, err := pg.Connect(ctx, a.cfg.Postgres)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, pool.Close)
	a.probes = append(a.probes, probe{name: "postgres", check: pg.Healthcheck(pool)})

	store, err := pgstore.New(pool, pgstore.WithTables(a.cfg.Tables))
	if err != nil {
		return err
	}
	a.transitions, a.history = store, store
	a.migrate = func(ctx context.Context) error { return pg.Migrate(ctx, pool, a.cfg.Tables, a.log) }
	a.rollback = func(ctx context.Context) error { return pg.Rollback(ctx, pool, a.cfg.Tables, a.log) }
	a.status = func(ctx context.Context) ([]schema.MigrationStatus, error) {
		return pg.Status(ctx, pool, a.cfg.Tables, a.log)
	}
	return nil
}

func (a *app) openSQLite(ctx context.Context) error {
	db, err := sqlitestore.Open(ctx, a.cfg.SQLiteDSN)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	a.probes = append(a.probes, probe{name: "sqlite", check: db.PingContext})

	store, err := sqlitestore.New(db, sqlitestore.WithTables(a.cfg.Tables))
	if err != nil {
		return err
	}
	a.transitions, a.history = store, store
	a.migrate = func(ctx context.Context) error { return store.Migrate(ctx, a.log) }
	a.rollback = func(ctx context.Context) error {
		return schema.Rollback(ctx, db, schema.SQLite, a.cfg.Tables, a.log)
	}
	a.status = func(ctx context.Context) ([]schema.MigrationStatus, error) {
		return schema.Status(ctx, db, schema.SQLite, a.cfg.Tables, a.log)
	}
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) transitionOptions() []transition.Option {
	return []transition.Option{
		transition.WithLogger(a.log),
		transition.WithConfig(a.cfg.Principals),
	}
}

func (a *app) index() *transition.Index {
	return transition.NewIndex(a.transitions, a.transitionOptions()...)
}

func (a *app) recorder() *history.Recorder {
	return history.NewRecorder(a.history,
		history.WithLogger(a.log),
		history.WithActorExtractor(transition.ActorIDFromContext),
	)
}

func (a *app) tracker() *history.Tracker {
	return history.NewTracker(a.recorder(), a.stager)
}

// engine builds the codec-dependent services from a definition file.
func (a *app) engine(definitionPath string, opts ...transition.Option) (*state.Registry, *transition.Catalog, *transition.Authorizer, error) {
	if definitionPath == "" {
		return nil, nil, nil, errors.New("--definition is required")
	}
	def, err := transition.LoadDefinition(definitionPath)
	if err != nil {
		return nil, nil, nil, err
	}
	registry, err := def.Registry()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build registry: %w", err)
	}
	codec := state.NewCodec(registry)
	opts = append(a.transitionOptions(), opts...)
	return registry,
		transition.NewCatalog(a.transitions, codec, opts...),
		transition.NewAuthorizer(a.transitions, codec, opts...),
		nil
}

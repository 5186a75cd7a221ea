package main

import (
	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/pg"
	"github.com/dmitrymomot/statekit/pkg/redisstage"
	"github.com/dmitrymomot/statekit/pkg/schema"
	"github.com/dmitrymomot/statekit/pkg/transition"
)

type appConfig struct {
	Driver    string `env:"STATEKIT_DRIVER" envDefault:"sqlite"`
	SQLiteDSN string `env:"SQLITE_DSN" envDefault:"file:statekit.db"`

	Postgres   pg.Config
	Redis      redisstage.Config
	Tables     schema.Tables
	Principals transition.Config
	Log        logger.Config
}

// globalFlags override values loaded from the environment.
type globalFlags struct {
	envFile string
	driver  string
	dsn     string
	json    bool
}

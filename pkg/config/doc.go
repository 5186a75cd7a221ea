// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - LoadEnv reads one or more dotenv files (./.env by default) without
//     overriding variables already present in the process environment.
//   - Load parses the environment into any struct annotated with env tags and
//     caches the result per type for the lifetime of the process.
//   - MustLoad and MustLoadEnv panic instead of returning errors.
//   - Reload and ResetCache drop cached values, mostly for tests.
//
// Every package of the module exposes its own env-tagged Config (pg.Config,
// schema.Tables, transition.Config, redisstage.Config, logger.Config), and
// the CLI assembles them with Load:
//
//	if err := config.LoadEnv(envFile); err != nil {
//	    return err
//	}
//	var tables schema.Tables
//	if err := config.Load(&tables); err != nil {
//	    return err
//	}
//
// # Errors
//
//   - ErrParsingConfig: the environment does not satisfy the struct tags.
//   - ErrLoadingEnvFile: a dotenv file could not be read.
//   - ErrNilPointer: nil pointer passed to Load.
package config

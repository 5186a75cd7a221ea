// Package redisstage provides a Redis-backed history.Stager built on go-redis.
//
// Metadata staged for an entity lives in a hash keyed by the entity's model
// reference until the next committed state change consumes it. Keys expire
// after a configurable TTL so metadata for changes that never happen does
// not accumulate.
//
// Configuration is described by [Config], populated from the environment via
// github.com/caarlos0/env:
//
//	var cfg redisstage.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	client, err := redisstage.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	tracker := history.NewTracker(recorder, redisstage.NewStager(client, redisstage.WithConfig(cfg)))
//
// [Healthcheck] plugs the client into liveness or readiness probes.
package redisstage

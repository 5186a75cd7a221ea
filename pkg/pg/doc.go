// Package pg bootstraps the PostgreSQL side of statekit using pgx/v5.
//
// Config is populated from the environment with caarlos0/env and controls
// pool limits and retry behaviour. Connect opens a
// *pgxpool.Pool, retrying until the database answers a ping. Migrate,
// Rollback and Status run the schema package's goose migrations over the
// same pool through pgx's database/sql bridge.
//
//	var cfg pg.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, schema.DefaultTables(), logger); err != nil {
//		return err
//	}
//
// Error helpers such as [IsDuplicateKeyError] and [IsForeignKeyViolationError]
// classify *pgconn.PgError values so stores can map them to domain errors.
package pg

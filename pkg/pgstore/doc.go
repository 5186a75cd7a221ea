// Package pgstore persists transitions, grants and history records in
// PostgreSQL through pgx/v5.
//
// [Store] implements transition.Store, history.Storage and history.Counter.
// It accepts anything that looks like a pgx connection (a pool, a single
// connection or a transaction), and [Store.WithTx] binds a store to one
// transaction so that a host's state update and the matching history record
// commit together:
//
//	err := store.WithTx(ctx, func(tx *pgstore.Store) error {
//		if _, err := updatePayment(ctx, tx, id, "approved"); err != nil {
//			return err
//		}
//		rec := history.NewRecorder(tx)
//		_, err := rec.Record(ctx, commit, history.Metadata{})
//		return err
//	})
//
// Custom properties are stored as JSONB and timestamps as TIMESTAMPTZ.
// Tables are created by pg.Migrate.
package pgstore

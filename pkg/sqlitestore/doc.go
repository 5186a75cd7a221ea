// Package sqlitestore persists transitions, grants and history records in
// SQLite through the pure Go modernc.org/sqlite driver.
//
// A single [Store] implements transition.Store, history.Storage and
// history.Counter. Timestamps are stored as fixed-width UTC text and custom
// properties as JSON text. Tables are created with [Store.Migrate]:
//
//	db, err := sqlitestore.Open(ctx, "file:statekit.db")
//	if err != nil {
//		return err
//	}
//	store, err := sqlitestore.New(db)
//	if err != nil {
//		return err
//	}
//	if err := store.Migrate(ctx, logger); err != nil {
//		return err
//	}
package sqlitestore

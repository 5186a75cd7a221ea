// Package history records the audit trail of entity state changes.
//
// The host calls the Tracker explicitly after it has persisted a mutation:
//
//	tracker := history.NewTracker(
//	    history.NewRecorder(storage, history.WithActorExtractor(transition.ActorIDFromContext)),
//	    history.NewMemoryStager(),
//	)
//
//	_ = tracker.Stage(ctx, ref, history.WithDescription("approved by phone"))
//	// ... persist payment.State = approved ...
//	rec, err := tracker.AfterCommit(ctx, ref, Pending, Approved)
//
// or lets the tracker drive the mutation:
//
//	rec, err := tracker.TransitionTo(ctx, ref, Pending, Approved, savePayment,
//	    history.WithProperties(map[string]any{"channel": "phone"}),
//	)
//
// A record is written when the state changed or when a non-blank description
// or non-empty properties were staged, so metadata-only annotations are
// possible while no-op commits leave no trace. Staged metadata is cleared after
// every commit whether or not a record was written.
//
// Recording happens after the state change is committed and never rolls it
// back. A failed write is reported as *ErrHistoryWrite, which matches
// ErrHistoryWriteFailed with errors.Is.
//
// Reader answers history queries: Find, ForModel, Latest and Count.
package history

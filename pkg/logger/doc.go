// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// New creates a *slog.Logger configured by Option functions. These options
// select the output format (text or json), the minimum level, static
// attributes applied to every record and ContextExtractor callbacks that pull
// attributes from the context on every Handle call.
//
// # Architecture
//
// New picks slog.NewTextHandler or slog.NewJSONHandler based on the configured
// Format and wraps it with ContextHandler, which runs the registered
// ContextExtractor callbacks before delegating to the underlying handler.
// Discard returns the no-op logger components default to.
//
// Helper constructors in attr.go keep attribute names consistent across the
// transition packages: Transition, TransitionID, ModelRef, Principal, State,
// HistoryID, Actor, Error and friends.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithConfig(cfg), // APP_ENV, LOG_LEVEL, LOG_FORMAT
//	    logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//	        id, ok := transition.ActorIDFromContext(ctx)
//	        return logger.Actor(id), ok
//	    }),
//	)
//	slog.SetDefault(log)
//
//	log.InfoContext(ctx, "transition recorded",
//	    logger.ModelRef("payment", "42"),
//	    logger.Transition("payment", "pending", "approved"),
//	)
//
// # Error Handling
//
// Error and Errors produce attributes only when the supplied error value is
// non-nil, so calls like
//
//	log.Info("operation finished", logger.Error(err))
//
// need no additional nil check.
package logger

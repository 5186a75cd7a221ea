package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Actor records the acting principal under the key "actor_id".
// If id is nil or empty, it returns an empty Attr.
func Actor(id any) slog.Attr {
	if id == nil || id == "" {
		return slog.Attr{}
	}
	return slog.Any("actor_id", id)
}

// ModelType records the model type tag under the key "model_type".
func ModelType(modelType string) slog.Attr {
	return slog.String("model_type", modelType)
}

// ModelRef groups a polymorphic entity reference under the key "model".
func ModelRef(modelType, id string) slog.Attr {
	return Group("model",
		slog.String("type", modelType),
		slog.String("id", id),
	)
}

// State records a state token under the key "state".
func State(token string) slog.Attr {
	return slog.String("state", token)
}

// Transition groups a (model type, from, to) triple under the key "transition".
func Transition(modelType, from, to string) slog.Attr {
	return Group("transition",
		slog.String("model_type", modelType),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// TransitionID records a catalog entry identifier under the key "transition_id".
func TransitionID(id string) slog.Attr {
	return slog.String("transition_id", id)
}

// Principal groups a grant principal under the key "principal".
func Principal(kind, id string) slog.Attr {
	return Group("principal",
		slog.String("type", kind),
		slog.String("id", id),
	)
}

// HistoryID records a history record identifier under the key "history_id".
func HistoryID(id string) slog.Attr {
	return slog.String("history_id", id)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

package logging

import "log/slog"

// Attribute keys shared by every component.
const (
	FieldRunID     = "run_id"
	FieldTask      = "task"
	FieldNode      = "node"
	FieldComponent = "component"
	FieldError     = "error"
)

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Component tags logger with a component name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(FieldComponent, name)
}

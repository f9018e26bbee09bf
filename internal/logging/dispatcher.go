package logging

import "log/slog"

// DispatcherLogger is the event bus view of a slog logger. Its records carry
// component=dispatcher.
type DispatcherLogger struct {
	*slog.Logger
}

func NewDispatcherLogger(logger *slog.Logger) *DispatcherLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatcherLogger{Logger: logger.With("component", "dispatcher")}
}

package core

import "github.com/hupe1980/unison/logging"

// loggerAdapter wraps a logging.Logger and exposes convenience methods
// (LogDebug/LogInfo/LogWarn/LogError). Scope fields such as the agent
// identity or the tool call ID are prepended to every entry, so call sites
// only pass what is specific to the event.
type loggerAdapter struct {
	logger logging.Logger
	fields []any
}

// newLoggerAdapter constructs a loggerAdapter with a non-nil logger.
func newLoggerAdapter(l logging.Logger, fields ...any) *loggerAdapter {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &loggerAdapter{logger: l, fields: fields}
}

// newRunLoggerAdapter scopes l to one run. A StructuredLogger is bound with
// WithRun; other loggers receive agent and run_id as leading fields.
func newRunLoggerAdapter(l logging.Logger, agent, runID string) *loggerAdapter {
	if sl, ok := l.(*logging.StructuredLogger); ok && sl != nil {
		return &loggerAdapter{logger: sl.WithRun(agent, runID)}
	}
	return newLoggerAdapter(l, "agent", agent, "run_id", runID)
}

// with returns a child adapter carrying extra scope fields.
func (l *loggerAdapter) with(fields ...any) *loggerAdapter {
	merged := make([]any, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &loggerAdapter{logger: l.logger, fields: merged}
}

func (l *loggerAdapter) scoped(args []any) []any {
	if len(l.fields) == 0 {
		return args
	}
	out := make([]any, 0, len(l.fields)+len(args))
	out = append(out, l.fields...)
	return append(out, args...)
}

// Logger returns the underlying logger.
func (l *loggerAdapter) Logger() logging.Logger {
	return l.logger
}

// LogDebug logs a debug message.
func (l *loggerAdapter) LogDebug(msg string, args ...any) {
	l.logger.Debug(msg, l.scoped(args)...)
}

// LogInfo logs an info message.
func (l *loggerAdapter) LogInfo(msg string, args ...any) {
	l.logger.Info(msg, l.scoped(args)...)
}

// LogWarn logs a warning message.
func (l *loggerAdapter) LogWarn(msg string, args ...any) {
	l.logger.Warn(msg, l.scoped(args)...)
}

// LogError logs an error message.
func (l *loggerAdapter) LogError(msg string, args ...any) {
	l.logger.Error(msg, l.scoped(args)...)
}

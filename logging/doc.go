// Package logging provides a minimal logging interface and adapters for unison.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that agents, clans and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - StructuredLogger wrapping Go's log/slog with agent and run context
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - Reporter and ConsoleReporter for human readable progress output
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	a, err := agent.New("helper", llm, func(o *agent.Options) { o.Logger = logger })
package logging

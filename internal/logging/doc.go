// Package logging constructs the process-wide slog logger and provides the
// attribute helpers used across components.
//
// Two output formats are supported: a console handler for interactive use
// (colorized only when stdout is a terminal) and line-delimited JSON for
// service deployments. Components receive child loggers tagged with a
// component field so log streams can be filtered per concern.
package logging

// Package logging builds the slog loggers used across repsync.
//
// It provides a compact console handler for interactive use, JSON output for
// machine consumption, shared attribute helpers, and a no-op logger for tests.
// Components receive loggers tagged via NewComponentLogger so records can be
// filtered per subsystem.
package logging

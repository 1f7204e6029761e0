// Package logging builds the slog loggers used across the relay and defines
// the standardized structured field keys for session-scoped diagnostics.
package logging

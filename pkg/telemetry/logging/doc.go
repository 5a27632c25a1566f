// Package logging configures the process-wide structured logger (slog)
// and carries request-scoped loggers through contexts.
package logging

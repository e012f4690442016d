// Package logger configures the application's structured JSON logger on top
// of log/slog and carries request-scoped loggers through context.Context.
package logger

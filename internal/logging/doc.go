// Package logging provides structured logging utilities for calendar-agent.
//
// It centralizes attribute naming so the gateway, the tool registry and the
// conversation loop emit consistent slog records.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "calendar.list")
//	logger.Info("listed events",
//	    logging.Status(logging.StatusSuccess))
//
// Logs go to stderr so they never interleave with the chat transcript on stdout.
// Event descriptions and conversation text are never logged at info level.
package logging

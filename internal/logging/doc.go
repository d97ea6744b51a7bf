// Package logging assembles structured slog loggers used across ogg2mp3.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so converter code automatically
// tags log lines with episode IDs, host operations, and correlation IDs. A
// no-op logger is provided for tests and wiring code that cannot fail.
package logging

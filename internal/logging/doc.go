// Package logging assembles the structured slog loggers used across mkimg.
//
// It owns console/JSON handler construction, centralizes level and output
// plumbing, and provides a no-op logger for tests and wiring code that
// cannot fail. Prefer these constructors over hand-rolled slog setup so
// every component emits diagnostics with the same shape.
package logging

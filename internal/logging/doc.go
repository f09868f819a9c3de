// Package logging assembles structured slog loggers for vttscribe.
//
// It owns the console and JSON handlers, level parsing, and the CRITICAL
// level used for unrecoverable failures. Console output is one line per
// record in the form "[LEVEL] message key=value" so it can be read next to
// the integer progress stream on stdout.
//
// Prefer these constructors over hand-rolled slog setup so every command
// emits records with the same shape.
package logging

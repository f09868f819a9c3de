// Package preflight provides readiness checks for the interpreter, Python
// modules and directories the transcriber depends on.
//
// The doctor command prints every result; the transcription commands call
// RunAll and refuse to start when a required check fails, so a missing
// engine is reported once instead of once per file.
package preflight

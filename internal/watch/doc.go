// Package watch re-runs a pass whenever media files appear under a set of
// directory roots. Events are debounced so a file still being copied
// triggers one pass after the writes settle, and passes never overlap.
package watch

// Package discovery turns command-line paths into the ordered list of media
// files a run should transcribe.
//
// Explicitly named files are always accepted. Directories are walked
// recursively in lexical order; a descendant is kept only when its path
// contains none of the exclude substrings, its extension is on the
// allow-list, it has no lock marker, and it has no subtitle file yet.
package discovery

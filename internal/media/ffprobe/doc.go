// Package ffprobe reads container metadata through the ffprobe CLI.
//
// Inspect returns the parsed format and stream sections; the helpers on
// Summary answer the two questions the transcriber asks of a media file: how
// long it is and whether it carries audio at all.
package ffprobe

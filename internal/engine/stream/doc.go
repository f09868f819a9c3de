// Package stream implements the in-process style engine: an embedded
// faster-whisper bridge prints one JSON line of media metadata followed by
// one JSON line per recognized segment, and the engine writes each segment
// as a WebVTT cue the moment it arrives.
package stream

// Package vtt reads and writes WebVTT subtitle files and tracks transcription
// progress as cues are produced.
package vtt

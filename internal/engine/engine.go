package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Engine kinds.
const (
	KindAuto       = "auto"
	KindStream     = "stream"
	KindSubprocess = "subprocess"
)

// ErrUnknownEngine is returned by Select for unsupported kinds.
var ErrUnknownEngine = errors.New("unknown engine")

// ErrNoOutput is returned when an engine exits cleanly without producing a
// subtitle file.
var ErrNoOutput = errors.New("engine produced no output")

// Request describes one transcription.
type Request struct {
	// Source is the media file to transcribe.
	Source string
	// Dest is the subtitle file to create or replace.
	Dest string
	// Language is an ISO 639-1 code, or empty for automatic detection.
	Language    string
	ComputeType string
	Model       string
	Device      string
	ModelDir    string
}

// Result summarizes a finished transcription.
type Result struct {
	Cues     int
	Duration float64
	Language string
}

// ProgressFunc receives whole percent values as they become known.
type ProgressFunc func(percent int)

// Engine transcribes a media file into a WebVTT file at Request.Dest.
// On error the destination may hold partial output; callers own cleanup.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, req Request, progress ProgressFunc) (Result, error)
}

// Select maps a configured kind onto a concrete engine kind for goos. The
// auto kind selects the subprocess engine on darwin, where MLX is available,
// and the stream engine elsewhere.
func Select(kind, goos string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindAuto:
		if goos == "darwin" {
			return KindSubprocess, nil
		}
		return KindStream, nil
	case KindStream:
		return KindStream, nil
	case KindSubprocess:
		return KindSubprocess, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownEngine, kind)
	}
}

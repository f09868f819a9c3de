package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Summary is the subset of ffprobe JSON output the transcriber reads.
type Summary struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one elementary stream.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Channels  int    `json:"channels"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Runner executes ffprobe and returns its stdout.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Prober inspects media files.
type Prober struct {
	binary string
	run    Runner
}

// Option configures a Prober.
type Option func(*Prober)

// WithRunner replaces process execution (primarily for tests).
func WithRunner(run Runner) Option {
	return func(p *Prober) {
		if run != nil {
			p.run = run
		}
	}
}

// New returns a Prober for binary, defaulting to "ffprobe".
func New(binary string, opts ...Option) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	p := &Prober{binary: binary, run: runCommand}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Binary returns the configured executable.
func (p *Prober) Binary() string {
	return p.binary
}

// Inspect executes ffprobe against path and decodes the JSON response.
func (p *Prober) Inspect(ctx context.Context, path string) (Summary, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Summary{}, errors.New("ffprobe inspect: empty path")
	}
	output, err := p.run(ctx, p.binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Summary{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}
	var summary Summary
	if err := json.Unmarshal(output, &summary); err != nil {
		return Summary{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return summary, nil
}

// Duration probes path and returns its container duration in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	summary, err := p.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	seconds := summary.DurationSeconds()
	if seconds <= 0 {
		return 0, fmt.Errorf("ffprobe: no duration reported for %s", path)
	}
	return seconds, nil
}

// AudioStreamCount returns the number of audio streams discovered.
func (s Summary) AudioStreamCount() int {
	count := 0
	for _, stream := range s.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// HasAudio reports whether at least one audio stream exists.
func (s Summary) HasAudio() bool {
	return s.AudioStreamCount() > 0
}

// DurationSeconds returns the container duration, falling back to the longest
// stream duration. It returns 0 when nothing parseable is reported.
func (s Summary) DurationSeconds() float64 {
	if d := parseSeconds(s.Format.Duration); d > 0 {
		return d
	}
	longest := 0.0
	for _, stream := range s.Streams {
		if d := parseSeconds(stream.Duration); d > longest {
			longest = d
		}
	}
	return longest
}

func parseSeconds(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || parsed < 0 {
		return 0
	}
	return parsed
}

func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

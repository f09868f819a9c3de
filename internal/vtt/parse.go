package vtt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parse reads the cues of a WebVTT document. Cue identifiers, settings after
// the end timestamp, and NOTE blocks are ignored; multi-line cue text is
// joined with newlines.
func Parse(r io.Reader) ([]Cue, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []Cue
	var current *Cue
	var lines []string
	first := true

	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(strings.Join(lines, "\n"))
			cues = append(cues, *current)
		}
		current = nil
		lines = lines[:0]
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			first = false
			line = strings.TrimPrefix(line, "\ufeff")
			if !strings.HasPrefix(line, "WEBVTT") {
				return nil, fmt.Errorf("vtt: missing WEBVTT header")
			}
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current == nil {
			start, end, ok := parseTiming(line)
			if !ok {
				continue
			}
			current = &Cue{Start: start, End: end}
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vtt: read: %w", err)
	}
	if first {
		return nil, fmt.Errorf("vtt: missing WEBVTT header")
	}
	flush()
	return cues, nil
}

// ParseFile reads the cues of the document at path.
func ParseFile(path string) ([]Cue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

func parseTiming(line string) (float64, float64, bool) {
	startText, rest, ok := strings.Cut(line, "-->")
	if !ok {
		return 0, 0, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, 0, false
	}
	start, err := ParseTimestamp(startText)
	if err != nil {
		return 0, 0, false
	}
	end, err := ParseTimestamp(fields[0])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

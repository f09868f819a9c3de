package vtt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Header is the fixed preamble every file starts with.
const Header = "WEBVTT\n\n"

// Arrow separates the start and end timestamps of a cue.
const Arrow = " --> "

// Cue is one timed block of subtitle text. Times are in seconds.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Duration returns the covered time span, never negative.
func (c Cue) Duration() float64 {
	if c.End <= c.Start {
		return 0
	}
	return c.End - c.Start
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	millis := int64(math.Round(seconds * 1000))
	ms := millis % 1000
	totalSeconds := millis / 1000
	s := totalSeconds % 60
	m := (totalSeconds / 60) % 60
	h := totalSeconds / 3600
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// ParseTimestamp parses HH:MM:SS.mmm or MM:SS.mmm into seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if strings.Count(value, ":") == 1 {
		value = "00:" + value
	}
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("vtt timestamp %q: expected HH:MM:SS.mmm", value)
	}
	secParts := strings.SplitN(parts[2], ".", 2)
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	s, errS := strconv.Atoi(secParts[0])
	if errH != nil || errM != nil || errS != nil {
		return 0, fmt.Errorf("vtt timestamp %q: invalid number", value)
	}
	ms := 0
	if len(secParts) == 2 {
		frac := secParts[1]
		if len(frac) > 3 {
			frac = frac[:3]
		}
		for len(frac) < 3 {
			frac += "0"
		}
		var err error
		if ms, err = strconv.Atoi(frac); err != nil {
			return 0, fmt.Errorf("vtt timestamp %q: invalid milliseconds", value)
		}
	}
	total := int64(h)*3600000 + int64(m)*60000 + int64(s)*1000 + int64(ms)
	return float64(total) / 1000, nil
}

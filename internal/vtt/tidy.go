package vtt

import (
	"math"
	"strings"
)

const (
	// maxCueChars is the longest cue text kept in one piece.
	maxCueChars = 200
	// mergeBelowChars is the combined length under which a fragment that does
	// not end a sentence is joined with its successor.
	mergeBelowChars = 121
	// minTailCue is the shortest last cue left after clamping to the media end.
	minTailCue = 0.5
	// tailMargin keeps the clamped last cue slightly inside the media.
	tailMargin = 0.3
)

// Tidy rewrites engine output into more readable cues. Fragments that do not
// end a sentence are merged with their successor while short, cues over 200
// characters are split at punctuation with time shared by character count,
// and the last cue is kept within duration when duration is positive.
func Tidy(cues []Cue, duration float64) []Cue {
	out := make([]Cue, 0, len(cues))
	var prev *Cue

	for _, current := range cues {
		current.Text = strings.TrimSpace(current.Text)
		if prev != nil {
			if len(prev.Text)+len(current.Text) < mergeBelowChars && !endsSentence(prev.Text) {
				merged := Cue{Start: prev.Start, End: current.End, Text: joinText(prev.Text, current.Text)}
				prev = &merged
				continue
			}
			out = append(out, *prev)
			prev = nil
		}
		if len(current.Text) > maxCueChars {
			out = append(out, splitLong(current)...)
			continue
		}
		c := current
		prev = &c
	}

	if prev != nil {
		last := *prev
		if duration > 0 && last.End > duration {
			last.End = math.Max(duration-tailMargin, last.Start+minTailCue)
		}
		out = append(out, last)
	}
	return out
}

func endsSentence(text string) bool {
	text = strings.TrimRight(text, " \t")
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "?") || strings.HasSuffix(text, "!")
}

// joinText concatenates two fragments, collapsing exact repeats that engines
// emit on chunk boundaries.
func joinText(a, b string) string {
	if a == b && !strings.HasSuffix(a, ",") {
		return b
	}
	return a + " " + b
}

func splitLong(c Cue) []Cue {
	var chunks []string
	var current string

	for _, word := range strings.Fields(c.Text) {
		if current != "" && len(current)+len(word)+1 > maxCueChars {
			if idx := strings.LastIndexAny(current, ",.?!:;"); idx >= 0 {
				chunks = append(chunks, strings.TrimSpace(current[:idx+1]))
				current = strings.TrimSpace(current[idx+1:])
			} else {
				chunks = append(chunks, strings.TrimSpace(current))
				current = ""
			}
		}
		if current != "" {
			current += " "
		}
		current += word
	}
	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	totalChars := 0
	for _, chunk := range chunks {
		totalChars += len(chunk)
	}
	if totalChars == 0 {
		return []Cue{c}
	}

	span := c.End - c.Start
	start := c.Start
	out := make([]Cue, 0, len(chunks))
	for _, chunk := range chunks {
		end := start + span*float64(len(chunk))/float64(totalChars)
		out = append(out, Cue{Start: roundMillis(start), End: roundMillis(end), Text: chunk})
		start = end
	}
	return out
}

func roundMillis(seconds float64) float64 {
	return math.Round(seconds*1000) / 1000
}

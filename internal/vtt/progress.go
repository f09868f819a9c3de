package vtt

import "math"

// Progress converts covered cue time into a whole percent of the media
// duration. Reported values never decrease and stay within 0..100.
type Progress struct {
	total   float64
	covered float64
	last    int
}

// NewProgress tracks progress against a total duration in seconds.
func NewProgress(total float64) *Progress {
	return &Progress{total: total}
}

// Add records a finished cue and returns the updated percent.
func (p *Progress) Add(c Cue) int {
	p.covered += c.Duration()
	return p.update()
}

// Percent returns the last reported percent.
func (p *Progress) Percent() int {
	return p.last
}

// Observe records an externally reported percent, such as one scraped from
// engine output, and returns the clamped non-decreasing value.
func (p *Progress) Observe(percent int) int {
	if percent > p.last {
		p.last = min(percent, 100)
	}
	return p.last
}

func (p *Progress) update() int {
	if p.total <= 0 || math.IsNaN(p.total) {
		return p.last
	}
	percent := int(math.Floor(p.covered / p.total * 100))
	return p.Observe(percent)
}

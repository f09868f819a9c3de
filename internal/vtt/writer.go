package vtt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"vttscribe/internal/fileutil"
)

// Writer emits a WebVTT document cue by cue.
type Writer struct {
	w       *bufio.Writer
	header  bool
	written int
}

// NewWriter wraps w. Call WriteHeader before the first cue.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteHeader writes the WEBVTT preamble.
func (w *Writer) WriteHeader() error {
	if w.header {
		return nil
	}
	w.header = true
	_, err := w.w.WriteString(Header)
	return err
}

// WriteCue writes a blank line, the timestamp range, and the trimmed text,
// then flushes so partial output reflects every finished cue.
func (w *Writer) WriteCue(c Cue) error {
	if !w.header {
		if err := w.WriteHeader(); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w.w, "\n%s%s%s\n%s\n", FormatTimestamp(c.Start), Arrow, FormatTimestamp(c.End), strings.TrimSpace(c.Text)); err != nil {
		return err
	}
	w.written++
	return w.w.Flush()
}

// Flush writes any buffered data.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Count returns the number of cues written.
func (w *Writer) Count() int {
	return w.written
}

// WriteFile replaces path with a document holding cues. The file is swapped
// in atomically so an interrupted rewrite leaves the previous content.
func WriteFile(path string, cues []Cue) error {
	err := fileutil.WriteAtomic(path, 0o644, func(out io.Writer) error {
		w := NewWriter(out)
		if err := w.WriteHeader(); err != nil {
			return err
		}
		for _, cue := range cues {
			if err := w.WriteCue(cue); err != nil {
				return err
			}
		}
		return w.Flush()
	})
	if err != nil {
		return fmt.Errorf("write vtt: %w", err)
	}
	return nil
}

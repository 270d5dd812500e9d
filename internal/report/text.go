// Package report writes the migration evaluation report.
package report

import (
	"fmt"
	"io"

	"github.com/koltyakov/migeval/internal/collect"
	pgerrors "github.com/koltyakov/migeval/internal/errors"
)

// Sentinel is printed for probes that failed or returned nothing.
const Sentinel = "-"

// TextWriter emits one "name: value" line per probe as outcomes arrive.
// Lines go straight to the underlying writer so an interrupted run leaves
// a valid prefix of the report.
type TextWriter struct {
	w     io.Writer
	path  string
	lines int
}

// NewTextWriter returns a TextWriter over w. path is only used in errors.
func NewTextWriter(w io.Writer, path string) *TextWriter {
	return &TextWriter{w: w, path: path}
}

// Emit implements collect.Sink.
func (t *TextWriter) Emit(p collect.Probe, o collect.Outcome) error {
	if _, err := fmt.Fprintf(t.w, "%s: %s\n", p.Name, Value(o)); err != nil {
		return pgerrors.NewReportError("write", t.path, err)
	}
	t.lines++
	return nil
}

// Lines reports how many lines were written.
func (t *TextWriter) Lines() int { return t.lines }

// Value collapses an outcome to its report text.
func Value(o collect.Outcome) string {
	if o.Status != collect.StatusOK || o.Value == "" {
		return Sentinel
	}
	return o.Value
}

// Package output provides writers for converted coordinates.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/coordconv/internal/coord"
)

// TabWriter writes coordinates as tab-delimited lines in a target system.
type TabWriter struct {
	w        *bufio.Writer
	target   coord.System
	annotate bool
	columns  []string
}

// NewTabWriter creates a new tab-delimited writer emitting coordinates in
// the target system.
func NewTabWriter(w io.Writer, target coord.System) *TabWriter {
	return &TabWriter{
		w:      bufio.NewWriter(w),
		target: target,
		columns: []string{
			"#chromosome",
			"start",
			"stop",
			"ref",
			"var",
		},
	}
}

// SetAnnotate appends the mutation type and the inferred source system to
// every line.
func (tw *TabWriter) SetAnnotate(annotate bool) {
	tw.annotate = annotate
}

// Target returns the coordinate system lines are written in.
func (tw *TabWriter) Target() coord.System {
	return tw.target
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	cols := tw.columns
	if tw.annotate {
		cols = append(cols[:len(cols):len(cols)], "mutation_type", "source_system")
	}
	_, err := tw.w.WriteString(strings.Join(cols, "\t") + "\n")
	return err
}

// Write writes a single coordinate converted to the target system.
// Invalid coordinates return the conversion error and write nothing.
func (tw *TabWriter) Write(c *coord.Coordinate) error {
	line, err := c.ConvertTo(tw.target)
	if err != nil {
		return err
	}

	if tw.annotate {
		line += "\t" + c.MutationType().String() + "\t" + c.System().String()
	}

	_, err = tw.w.WriteString(line + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

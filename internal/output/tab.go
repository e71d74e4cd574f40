// Package output writes and reads edit plans as the plain tab-separated files
// consumed by dataset editors.
package output

import (
	"bufio"
	"io"
	"strings"
)

// TabWriter writes rows of tab-joined fields, one per line.
type TabWriter struct {
	w    *bufio.Writer
	rows int
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// WriteRow writes a single row.
func (tw *TabWriter) WriteRow(fields ...string) error {
	_, err := tw.w.WriteString(strings.Join(fields, "\t") + "\n")
	if err == nil {
		tw.rows++
	}
	return err
}

// Rows returns the number of rows written.
func (tw *TabWriter) Rows() int {
	return tw.rows
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

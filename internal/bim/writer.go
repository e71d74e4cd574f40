package bim

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Writer writes records in tab-delimited BIM format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a BIM writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes a single record.
func (bw *Writer) Write(r Record) error {
	values := []string{
		r.Chromosome,
		r.ID,
		r.Morgans,
		strconv.FormatInt(r.Position, 10),
		r.Allele1,
		r.Allele2,
	}
	_, err := bw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (bw *Writer) Flush() error {
	return bw.w.Flush()
}

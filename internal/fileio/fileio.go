// Package fileio opens plain, gzip and BGZF compressed text files and scans
// them line by line with line-number tracking for error reporting.
package fileio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// ErrFormat is matched by every ParseError.
var ErrFormat = errors.New("malformed record")

// Compression identifies how a file is encoded on disk.
type Compression int

const (
	Plain Compression = iota
	Gzip
	BGZF
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case BGZF:
		return "bgzf"
	}
	return "plain"
}

// Detect reports the compression of the stream behind br without consuming it.
// BGZF is gzip with a "BC" extra subfield in every member header.
func Detect(br *bufio.Reader) Compression {
	head, _ := br.Peek(18)
	if len(head) < 2 || head[0] != 0x1f || head[1] != 0x8b {
		return Plain
	}
	if len(head) >= 14 && head[3]&0x04 != 0 && head[12] == 'B' && head[13] == 'C' {
		return BGZF
	}
	return Gzip
}

// File is an open, transparently decompressed input file.
type File struct {
	io.Reader
	Compression Compression

	file   *os.File
	closer io.Closer
}

// Open opens path for reading, decompressing gzip and BGZF content.
// BGZF blocks are decompressed concurrently.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(f, 1<<16)
	out := &File{file: f, Compression: Detect(br)}

	switch out.Compression {
	case BGZF:
		bz, err := bgzf.NewReader(br, runtime.GOMAXPROCS(0))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create bgzf reader: %w", err)
		}
		out.Reader, out.closer = bz, bz
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		out.Reader, out.closer = gz, gz
	default:
		out.Reader = br
	}

	return out, nil
}

// Close releases the decompressor and the underlying file.
func (f *File) Close() error {
	if f.closer != nil {
		f.closer.Close()
	}
	return f.file.Close()
}

// ParseError represents a malformed line with file and line context.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("parse error at %s:%d: %s", e.Path, e.Line, e.Message)
}

// Is implements errors.Is support.
func (e *ParseError) Is(target error) bool {
	return target == ErrFormat
}

// Scanner reads newline-terminated lines. Unlike bufio.Scanner it has no
// maximum line length, which matters for wide database dumps.
type Scanner struct {
	reader *bufio.Reader
	path   string
	line   int
	text   string
	err    error
}

// NewScanner returns a Scanner over r. path is only used in error messages.
func NewScanner(r io.Reader, path string) *Scanner {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 1<<16)
	}
	return &Scanner{reader: br, path: path}
}

// Scan advances to the next line, which is then available through Text.
// It returns false at end of input or on a read error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			s.err = fmt.Errorf("read %s: %w", s.path, err)
			return false
		}
		if line == "" {
			return false
		}
	}
	s.line++
	s.text = strings.TrimRight(line, "\r\n")
	return true
}

// Text returns the current line without its terminator.
func (s *Scanner) Text() string { return s.text }

// Line returns the 1-based number of the current line.
func (s *Scanner) Line() int { return s.line }

// Path returns the name the scanner reports errors against.
func (s *Scanner) Path() string { return s.path }

// Err returns the first read error encountered.
func (s *Scanner) Err() error { return s.err }

// Errorf builds a ParseError for the current line.
func (s *Scanner) Errorf(format string, args ...any) *ParseError {
	return &ParseError{
		Path:    s.path,
		Line:    s.line,
		Message: fmt.Sprintf(format, args...),
	}
}

// ListFiles expands path into the files it names: the file itself, or the
// regular files of a directory in lexical order. Hidden files are ignored.
func ListFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	// os.ReadDir returns entries sorted by filename.
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files in directory %s", path)
	}
	return files, nil
}

package bim

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/snptk/snptk/internal/fileio"
)

// Parser reads records from a BIM file.
type Parser struct {
	scanner *fileio.Scanner
	file    *fileio.File
	blank   int // line of the first blank line not yet followed by a record
}

// NewParser opens a BIM file. Gzipped files are detected automatically.
func NewParser(path string) (*Parser, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bim file: %w", err)
	}
	return &Parser{scanner: fileio.NewScanner(f, path), file: f}, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader, name string) *Parser {
	return &Parser{scanner: fileio.NewScanner(r, name)}
}

// Next reads the next record. Returns nil, nil at end of input.
// A line without exactly six fields is a *fileio.ParseError. Blank lines are
// only allowed at the end of the file.
func (p *Parser) Next() (*Record, error) {
	for p.scanner.Scan() {
		line := p.scanner.Text()
		if strings.TrimSpace(line) == "" {
			if p.blank == 0 {
				p.blank = p.scanner.Line()
			}
			continue
		}
		if p.blank != 0 {
			return nil, &fileio.ParseError{
				Path:    p.scanner.Path(),
				Line:    p.blank,
				Message: fmt.Sprintf("invalid BIM format: expected %d fields, found 0", NumColumns),
			}
		}
		return p.parseLine(line)
	}
	return nil, p.scanner.Err()
}

func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Fields(line)
	if len(fields) != NumColumns {
		return nil, p.scanner.Errorf("invalid BIM format: expected %d fields, found %d", NumColumns, len(fields))
	}

	pos, err := strconv.ParseInt(fields[ColPosition], 10, 64)
	if err != nil {
		return nil, p.scanner.Errorf("invalid position: %s", fields[ColPosition])
	}

	return &Record{
		Chromosome: fields[ColChromosome],
		ID:         fields[ColVariantID],
		Morgans:    fields[ColMorgans],
		Position:   pos,
		Allele1:    fields[ColAllele1],
		Allele2:    fields[ColAllele2],
	}, nil
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.scanner.Line()
}

// Close closes the underlying file.
func (p *Parser) Close() error {
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// Load reads every record of a BIM file in file order.
func Load(path string) ([]Record, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return readAll(p)
}

func readAll(p *Parser) ([]Record, error) {
	var records []Record
	for {
		r, err := p.Next()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return records, nil
		}
		records = append(records, *r)
	}
}

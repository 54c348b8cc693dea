package tsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// MinColumns is the number of leading columns a data line must carry.
const MinColumns = 5

// Parser reads coordinate records from a tab-delimited file.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
}

// NewParser creates a new parser for the given file.
// Supports both plain and gzipped (.gz) files; "-" reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tsv file: %w", err)
	}

	p := &Parser{file: file}
	r, gz, err := OpenMaybeGzip(file)
	if err != nil {
		file.Close()
		return nil, err
	}
	p.reader = r
	p.gzipReader = gz

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	return &Parser{
		reader: bufio.NewReader(r),
	}, nil
}

// OpenMaybeGzip wraps f in a buffered reader, transparently decompressing
// it when it starts with the gzip magic bytes. The returned gzip reader is
// nil for plain files.
func OpenMaybeGzip(f *os.File) (*bufio.Reader, *gzip.Reader, error) {
	buf := make([]byte, 2)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("read file header: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("seek file: %w", err)
	}

	// gzip magic number (0x1f, 0x8b)
	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return bufio.NewReader(gz), gz, nil
	}
	return bufio.NewReader(f), nil, nil
}

// Next reads the next record.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read record line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return p.parseLine(line)
	}
}

// parseLine parses a single data line into a Record.
func (p *Parser) parseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < MinColumns {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", MinColumns, len(fields)),
		}
	}

	start, err := ParsePosition(fields[1])
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid start position: %s", fields[1]),
		}
	}
	stop, err := ParsePosition(fields[2])
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid stop position: %s", fields[2]),
		}
	}

	return &Record{
		Chrom: fields[0],
		Start: start,
		Stop:  stop,
		Ref:   strings.TrimSpace(fields[3]),
		Var:   strings.TrimSpace(fields[4]),
		Line:  p.lineNumber,
	}, nil
}

// ParsePosition parses a base-10 position, ignoring surrounding spaces.
func ParsePosition(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tsv parse error at line %d: %s", e.Line, e.Message)
}

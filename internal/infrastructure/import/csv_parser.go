// Package csvimport reads stock spreadsheets exported as CSV.
//
// Dealer exports usually come out of a French-locale Excel: semicolon
// separated, sometimes Windows-1252 encoded, with decimal commas. The parser
// accepts both that and plain RFC 4180 files.
package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

// CSVParser reads a header row followed by data rows
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	aliases    map[string]string
	headerMap  map[string]int
	headers    []string
	currentRow int
	totalRows  int
	encoding   string
	reader     *csv.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter forces the field delimiter; detection is skipped
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// WithHeaderAliases maps alternative column titles onto canonical names.
// Keys are compared after normalization.
func WithHeaderAliases(aliases map[string]string) ParserOption {
	return func(p *CSVParser) {
		for k, v := range aliases {
			p.aliases[NormalizeHeader(k)] = v
		}
	}
}

// NewCSVParser creates a parser. A UTF-8 BOM is stripped; input that is not
// valid UTF-8 is decoded as Windows-1252.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	p := &CSVParser{
		lazyQuotes: true,
		aliases:    make(map[string]string),
		headerMap:  make(map[string]int),
		encoding:   "utf-8",
	}
	for _, opt := range opts {
		opt(p)
	}

	br := bufio.NewReaderSize(r, sniffSize)
	head, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
		head = head[3:]
	}
	if len(bytes.TrimSpace(head)) == 0 {
		return nil, ErrEmptyFile
	}

	var src io.Reader = br
	if !validUTF8Prefix(head) {
		p.encoding = "windows-1252"
		src = transform.NewReader(br, charmap.Windows1252.NewDecoder())
		head, err = charmap.Windows1252.NewDecoder().Bytes(head)
		if err != nil {
			return nil, ErrInvalidEncoding
		}
	}
	if p.delimiter == 0 {
		p.delimiter = detectDelimiter(head)
	}

	p.reader = csv.NewReader(src)
	p.reader.Comma = p.delimiter
	p.reader.LazyQuotes = p.lazyQuotes
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// validUTF8Prefix tolerates a rune cut in half at the end of the sniffed window
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return true
		}
		b = b[:len(b)-1]
	}
	return len(b) == 0
}

// detectDelimiter picks the most frequent of ; , and tab on the first line
func detectDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{';', ',', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// NormalizeHeader lowercases a column title and joins its words with underscores
func NormalizeHeader(h string) string {
	fields := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(h)), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.'
	})
	return strings.Join(fields, "_")
}

// ParseHeader reads and normalizes the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, 0, len(record))
	for i, h := range record {
		name := NormalizeHeader(h)
		if alias, ok := p.aliases[name]; ok {
			name = alias
		}
		p.headers = append(p.headers, name)
		if name == "" {
			continue
		}
		if _, dup := p.headerMap[name]; dup {
			return fmt.Errorf("%w: column %q appears twice", ErrInvalidHeader, name)
		}
		p.headerMap[name] = i
	}
	if len(p.headerMap) == 0 {
		return ErrMissingHeader
	}

	p.currentRow = 1
	return nil
}

// Headers returns the normalized header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// Encoding reports the detected source encoding
func (p *CSVParser) Encoding() string {
	return p.encoding
}

// Delimiter reports the delimiter in use
func (p *CSVParser) Delimiter() rune {
	return p.delimiter
}

// Row is a data row keyed by normalized header
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row; io.EOF ends the file
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}
	p.totalRows++

	row := &Row{
		LineNumber: p.currentRow,
		Data:       make(map[string]string, len(p.headerMap)),
	}
	for name, i := range p.headerMap {
		if i < len(record) {
			row.Data[name] = strings.TrimSpace(record[i])
		} else {
			row.Data[name] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads the remaining rows, skipping blank lines, up to limit
// rows (0 means no limit)
func (p *CSVParser) ReadAllRows(limit int) ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		if limit > 0 && len(rows) == limit {
			return rows, fmt.Errorf("%w: more than %d rows", ErrTooManyRows, limit)
		}
		rows = append(rows, row)
	}
}

// TotalRows returns the number of data rows read
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}

// MissingHeaders returns the required headers absent from the file
func (p *CSVParser) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

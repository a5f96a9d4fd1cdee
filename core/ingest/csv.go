package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads a delimited text export. The delimiter is sniffed from the
// first line when not configured.
type CSVSource struct {
	Path      string `json:"path"`
	Delimiter string `json:"delimiter"`

	reader io.Reader
	name   string
}

// NewCSVReader reads CSV data from r.
func NewCSVReader(name string, r io.Reader) *CSVSource {
	return &CSVSource{reader: r, name: name}
}

func (s *CSVSource) Name() string {
	if s.name != "" {
		return s.name
	}
	return filepath.Base(s.Path)
}

func (s *CSVSource) Read(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := s.reader
	if r == nil {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("open csv %s: %w", s.Name(), err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", s.Name(), err)
	}
	rows, err := parseCSV(data, s.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", s.Name(), err)
	}
	return &Table{Name: s.Name(), Rows: rows}, nil
}

func parseCSV(data []byte, delim string) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	cr := csv.NewReader(bytes.NewReader(data))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	switch {
	case delim == `\t` || delim == "tab":
		cr.Comma = '\t'
	case delim != "":
		cr.Comma = []rune(delim)[0]
	default:
		cr.Comma = sniffDelimiter(data)
	}
	return cr.ReadAll()
}

// sniffDelimiter picks the candidate appearing most often on the first line.
// Vietnamese Excel installs export with ';' because ',' is the decimal mark.
func sniffDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		return ','
	}
	line := sc.Text()
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		n := 0
		inQuote := false
		for _, r := range line {
			switch {
			case r == '"':
				inQuote = !inQuote
			case r == d && !inQuote:
				n++
			}
		}
		if n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

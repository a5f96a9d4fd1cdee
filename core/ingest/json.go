package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// JSONSource reads an exported array of row objects. The array may be the
// document itself or sit under a "data", "rows" or "records" key.
type JSONSource struct {
	Path string `json:"path"`

	reader io.Reader
	name   string
}

// NewJSONReader reads JSON rows from r.
func NewJSONReader(name string, r io.Reader) *JSONSource {
	return &JSONSource{reader: r, name: name}
}

func (s *JSONSource) Name() string {
	if s.name != "" {
		return s.name
	}
	return filepath.Base(s.Path)
}

func (s *JSONSource) Read(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := s.reader
	if r == nil {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("open json %s: %w", s.Name(), err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json %s: %w", s.Name(), err)
	}
	rows, err := parseJSONRows(data)
	if err != nil {
		return nil, fmt.Errorf("parse json %s: %w", s.Name(), err)
	}
	return &Table{Name: s.Name(), Rows: rows}, nil
}

var envelopeKeys = []string{"data", "rows", "records"}

// parseJSONRows flattens row objects into a grid whose first row is the
// sorted union of keys.
func parseJSONRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	var objs []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env map[string]json.RawMessage
		if err := dec.Decode(&env); err != nil {
			return nil, err
		}
		var raw json.RawMessage
		for _, k := range envelopeKeys {
			if v, ok := env[k]; ok {
				raw = v
				break
			}
		}
		if raw == nil {
			return nil, fmt.Errorf("object has none of the keys %v", envelopeKeys)
		}
		dec = json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
	}
	if err := dec.Decode(&objs); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var keys []string
	for _, o := range objs {
		for k := range o {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(objs)+1)
	rows = append(rows, keys)
	for _, o := range objs {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i] = jsonCell(o[k])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// jsonCell renders a JSON value as spreadsheet text. Numbers use a decimal
// comma so the Vietnamese-aware parsers read them back exactly: "1.250"
// would otherwise be taken for 1250.
func jsonCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		s := x.String()
		if f, err := x.Float64(); err == nil {
			s = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strings.Replace(s, ".", ",", 1)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return string(b)
	}
}

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Format is an output encoding.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
)

// ParseFormat validates a format name. Empty selects XLSX.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON, XLSX:
		return f, nil
	case "", "excel", "xls":
		return XLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case JSON:
		return "application/json"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// Extension returns the file extension for f without the dot.
func (f Format) Extension() string { return string(f) }

// Write encodes tables in format f. CSV holds a single table; JSON holds an
// array for one table and an object keyed by table name for several.
func Write(w io.Writer, f Format, tables ...Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no table to export")
	}
	switch f {
	case CSV:
		if len(tables) != 1 {
			return fmt.Errorf("csv holds one table, got %d", len(tables))
		}
		return WriteCSV(w, tables[0])
	case JSON:
		if len(tables) == 1 {
			return WriteJSON(w, tables[0])
		}
		out := make(map[string][]map[string]any, len(tables))
		for _, t := range tables {
			out[t.Name] = t.records()
		}
		return encodeJSON(w, out)
	case XLSX:
		return WriteXLSX(w, tables...)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// utf8BOM makes spreadsheet programs read Vietnamese text as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes t with its header row.
func WriteCSV(w io.Writer, t Table) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Header
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range t.Columns {
			rec[i] = formatCell(c.Kind, cellAt(row, i))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes t as an array of objects keyed by column key.
func WriteJSON(w io.Writer, t Table) error {
	return encodeJSON(w, t.records())
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (t Table) records() []map[string]any {
	out := make([]map[string]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			v := cellAt(row, i)
			if d, ok := v.(time.Time); ok && c.Kind == Date {
				v = d.Format("2006-01-02")
			}
			if f, ok := v.(float64); ok {
				v = round(f, 4)
			}
			rec[c.Key] = v
		}
		out = append(out, rec)
	}
	return out
}

func cellAt(row []any, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}

func formatCell(k Kind, v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		if k == Date {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(round(x, 4), 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

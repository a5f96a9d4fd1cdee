package ingest

import (
	"context"
	"strings"
)

// Table is the raw cell grid read from a source. Header detection happens in
// the Parser, so sources return every row including titles above the header.
type Table struct {
	Name string
	Rows [][]string
}

// Source yields a Table from a file, upload or remote export.
type Source interface {
	Name() string
	Read(ctx context.Context) (*Table, error)
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

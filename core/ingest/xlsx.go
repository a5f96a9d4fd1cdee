package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads one worksheet of an Excel workbook.
type XLSXSource struct {
	Path string `json:"path"`
	// Sheet selects the worksheet; empty means the first sheet.
	Sheet string `json:"sheet"`

	reader io.Reader
	name   string
}

// NewXLSXReader reads a workbook from r, typically an HTTP upload.
func NewXLSXReader(name string, r io.Reader, sheet string) *XLSXSource {
	return &XLSXSource{Sheet: sheet, reader: r, name: name}
}

func (s *XLSXSource) Name() string {
	if s.name != "" {
		return s.name
	}
	return filepath.Base(s.Path)
}

func (s *XLSXSource) Read(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		f   *excelize.File
		err error
	)
	if s.reader != nil {
		f, err = excelize.OpenReader(s.reader)
	} else {
		f, err = excelize.OpenFile(s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.Name(), err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", s.Name())
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, s.Name(), err)
	}
	return &Table{Name: s.Name(), Rows: rows}, nil
}

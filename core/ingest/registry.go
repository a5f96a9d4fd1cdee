package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/corner-25/test-umc-sub000/core/factory"
)

// Sources builds configured trip sources by type.
var Sources = factory.NewRegistry[Source]()

func init() {
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(Sources.Register("xlsx", func(conf map[string]any) (Source, error) {
		var s XLSXSource
		if err := factory.Decode(conf, &s); err != nil {
			return nil, err
		}
		if s.Path == "" {
			return nil, fmt.Errorf("xlsx source: path is required")
		}
		return &s, nil
	}))
	must(Sources.Register("csv", func(conf map[string]any) (Source, error) {
		var s CSVSource
		if err := factory.Decode(conf, &s); err != nil {
			return nil, err
		}
		if s.Path == "" {
			return nil, fmt.Errorf("csv source: path is required")
		}
		return &s, nil
	}))
	must(Sources.Register("json", func(conf map[string]any) (Source, error) {
		var s JSONSource
		if err := factory.Decode(conf, &s); err != nil {
			return nil, err
		}
		if s.Path == "" {
			return nil, fmt.Errorf("json source: path is required")
		}
		return &s, nil
	}))
	must(Sources.Register("http", func(conf map[string]any) (Source, error) {
		var s HTTPSource
		if err := factory.Decode(conf, &s); err != nil {
			return nil, err
		}
		return NewHTTPSource(s)
	}))
}

// FileSource picks a source from the file extension of path.
func FileSource(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return &XLSXSource{Path: path}, nil
	case ".csv", ".tsv", ".txt":
		return &CSVSource{Path: path}, nil
	case ".json":
		return &JSONSource{Path: path}, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

// ReaderSource wraps an uploaded file, choosing the format from its name.
func ReaderSource(name string, r io.Reader) (Source, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return NewXLSXReader(name, r, ""), nil
	case ".csv", ".tsv", ".txt":
		return NewCSVReader(name, r), nil
	case ".json":
		return NewJSONReader(name, r), nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
}

package config

import (
	"fmt"

	"github.com/corner-25/test-umc-sub000/core/factory"
	"github.com/corner-25/test-umc-sub000/core/ingest"
)

// IngestConfig tunes header detection and value limits, and lists the
// remote sources pulled by `ingest --sources`.
type IngestConfig struct {
	// Mapping adds header aliases per field, e.g. {"plate": ["bsx"]}.
	Mapping map[string][]string    `json:"mapping"`
	Limits  ingest.Limits          `json:"limits"`
	Sources []factory.ModuleConfig `json:"sources"`
}

func (c *IngestConfig) SetDefaults() {
	c.Limits.SetDefaults()
}

func (c IngestConfig) Validate() error {
	known := ingest.DefaultMapping()
	for name := range c.Mapping {
		if _, ok := known[ingest.Field(name)]; !ok {
			return fmt.Errorf("mapping: unknown field %s", name)
		}
	}
	for i, s := range c.Sources {
		if _, err := ingest.Sources.Create(s); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
	}
	return nil
}

// NewParser builds the row parser for these settings.
func (c IngestConfig) NewParser() *ingest.Parser {
	return ingest.NewParser(ingest.DefaultMapping().Merge(c.Mapping), c.Limits)
}

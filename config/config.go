package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/corner-25/test-umc-sub000/core/fleet"
	"github.com/corner-25/test-umc-sub000/core/metrics"
	"github.com/corner-25/test-umc-sub000/infra/mqtt"
)

// EnvPrefix marks environment overrides. UMC_FLEET__THRESHOLDS__MAX_DAILY_KM
// sets fleet.thresholds.max_daily_km.
const EnvPrefix = "UMC_"

type Config struct {
	Server  ServerConfig   `json:"server"`
	Auth    AuthConfig     `json:"auth"`
	Fleet   fleet.Config   `json:"fleet"`
	Ingest  IngestConfig   `json:"ingest"`
	Store   StoreConfig    `json:"store"`
	Audit   AuditConfig    `json:"audit"`
	Logging LoggingConfig  `json:"logging"`
	Metrics metrics.Config `json:"metrics"`
	MQTT    mqtt.Config    `json:"mqtt"`
	Sentry  SentryConfig   `json:"sentry"`
}

// ServerConfig sets the dashboard HTTP listener.
type ServerConfig struct {
	Addr            string        `json:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	MaxUploadMB     int           `json:"max_upload_mb"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 32
	}
}

// StoreConfig selects the trip store: "memory" or "sqlite".
type StoreConfig struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if c.Driver == "sqlite" && c.Path == "" {
		c.Path = "umc-fleet.db"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case "memory":
	case "sqlite":
		if c.Path == "" {
			return fmt.Errorf("path is required")
		}
	default:
		return fmt.Errorf("unknown driver %s", c.Driver)
	}
	return nil
}

// Load reads a yaml or json file and applies UMC_ environment overrides.
// An empty path loads defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Auth.SetDefaults()
	c.Fleet.SetDefaults()
	c.Ingest.SetDefaults()
	c.Store.SetDefaults()
	c.Audit.SetDefaults()
	c.Logging.SetDefaults()
	c.MQTT.SetDefaults()
	c.Sentry.SetDefaults()
}

// Validate checks every section, naming the failing one.
func (c Config) Validate() error {
	checks := []struct {
		name     string
		validate func() error
	}{
		{"auth", c.Auth.Validate},
		{"fleet", c.Fleet.Validate},
		{"ingest", c.Ingest.Validate},
		{"store", c.Store.Validate},
		{"audit", c.Audit.Validate},
		{"logging", c.Logging.Validate},
		{"mqtt", c.MQTT.Validate},
		{"sentry", c.Sentry.Validate},
	}
	for _, ch := range checks {
		if err := ch.validate(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

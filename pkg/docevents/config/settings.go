package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load and ApplyEnv.
const EnvPrefix = "DOCEVENTS_"

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// ErrInvalidSettings indicates Settings failed validation.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings configures a docevents runtime.
type Settings struct {
	Log      LogSettings               `yaml:"log" json:"log" envPrefix:"LOG_"`
	Close    CloseSettings             `yaml:"close" json:"close" envPrefix:"CLOSE_"`
	Store    StoreSettings             `yaml:"store" json:"store" envPrefix:"STORE_"`
	Tracing  TracingSettings           `yaml:"tracing" json:"tracing" envPrefix:"TRACING_"`
	Products map[string]map[string]any `yaml:"products" json:"products"`
}

// LogSettings configures the slog logger.
type LogSettings struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level" env:"LEVEL"`
	// Format is text or json.
	Format string `yaml:"format" json:"format" env:"FORMAT"`
}

// CloseSettings configures the close orchestrator.
type CloseSettings struct {
	// ParallelPhases dispatches each phase concurrently across products.
	ParallelPhases bool `yaml:"parallel_phases" json:"parallel_phases" env:"PARALLEL_PHASES"`
}

// StoreSettings configures where usage reports are written.
type StoreSettings struct {
	Driver string `yaml:"driver" json:"driver" env:"DRIVER"`
	// Path is the SQLite database file (or ":memory:").
	Path string `yaml:"path" json:"path" env:"PATH"`
}

// TracingSettings configures OTLP trace export.
type TracingSettings struct {
	Endpoint    string `yaml:"endpoint" json:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" json:"service_name" env:"SERVICE_NAME"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		Log:     LogSettings{Level: "info", Format: "text"},
		Store:   StoreSettings{Driver: StoreMemory},
		Tracing: TracingSettings{ServiceName: "docevents"},
	}
}

// Load reads settings from a file, auto-detecting format by extension,
// applies environment overrides, and validates the result.
// Supported extensions: .yaml, .yml, .json
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	var s Settings
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		s, err = ParseYAML(data)
	case ".json":
		s, err = ParseJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported settings file extension: %s", ext)
	}
	if err != nil {
		return Settings{}, err
	}

	if err := s.ApplyEnv(); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ParseYAML parses YAML settings on top of Default.
func ParseYAML(data []byte) (Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return s, nil
}

// ParseJSON parses JSON settings on top of Default.
func ParseJSON(data []byte) (Settings, error) {
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return s, nil
}

// ApplyEnv overrides fields from DOCEVENTS_* environment variables.
// Unset variables leave the current value in place.
func (s *Settings) ApplyEnv() error {
	if err := env.ParseWithOptions(s, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks that every field holds a supported value.
func (s Settings) Validate() error {
	var errs []error
	if _, err := s.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch s.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want text or json", s.Log.Format))
	}
	switch s.Store.Driver {
	case "", StoreMemory:
	case StoreSQLite:
		if s.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver %q: want %s or %s", s.Store.Driver, StoreMemory, StoreSQLite))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

// SlogLevel converts Level to a slog.Level. Empty means info.
func (l LogSettings) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q: want debug, info, warn or error", l.Level)
	}
}

// Product returns the options block for a product. Missing products yield
// an empty Values.
func (s Settings) Product(name string) Values {
	return Values(s.Products[name])
}

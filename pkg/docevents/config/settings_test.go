package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/docevents/pkg/docevents/config"
)

const sampleYAML = `
log:
  level: debug
  format: json
close:
  parallel_phases: true
store:
  driver: sqlite
  path: ./usage.db
tracing:
  endpoint: http://localhost:4318
products:
  docevents-core:
    ignore_types: [close-document-event]
    max_types: 20
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	s := config.Default()
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, config.StoreMemory, s.Store.Driver)
	assert.False(t, s.Close.ParallelPhases)
	assert.NoError(t, s.Validate())
}

func TestParseYAML(t *testing.T) {
	s, err := config.ParseYAML([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
	assert.True(t, s.Close.ParallelPhases)
	assert.Equal(t, config.StoreSQLite, s.Store.Driver)
	assert.Equal(t, "./usage.db", s.Store.Path)
	assert.Equal(t, "http://localhost:4318", s.Tracing.Endpoint)
	assert.Equal(t, "docevents", s.Tracing.ServiceName, "unset fields keep defaults")

	opts := s.Product("docevents-core")
	assert.Equal(t, []string{"close-document-event"}, opts.StringSlice("ignore_types", nil))
	assert.Equal(t, 20, opts.Int("max_types", 0))
	assert.False(t, s.Product("missing").Has("ignore_types"))
}

func TestParseYAMLInvalid(t *testing.T) {
	_, err := config.ParseYAML([]byte("log: [unclosed"))
	assert.Error(t, err)
}

func TestParseJSON(t *testing.T) {
	s, err := config.ParseJSON([]byte(`{
		"log": {"level": "warn"},
		"store": {"driver": "memory"},
		"products": {"forms": {"strict": true, "limit": 3}}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "warn", s.Log.Level)
	assert.Equal(t, "text", s.Log.Format)
	assert.True(t, s.Product("forms").Bool("strict", false))
	assert.Equal(t, 3, s.Product("forms").Int("limit", 0))
}

func TestLoad(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		s, err := config.Load(writeFile(t, "docevents.yaml", sampleYAML))
		require.NoError(t, err)
		assert.Equal(t, "debug", s.Log.Level)
	})

	t.Run("json file with uppercase extension", func(t *testing.T) {
		s, err := config.Load(writeFile(t, "docevents.JSON", `{"log": {"level": "error"}}`))
		require.NoError(t, err)
		assert.Equal(t, "error", s.Log.Level)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "docevents.toml", "x = 1"))
		assert.ErrorContains(t, err, "unsupported settings file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "read settings file")
	})

	t.Run("invalid settings", func(t *testing.T) {
		_, err := config.Load(writeFile(t, "bad.yaml", "store:\n  driver: sqlite\n"))
		assert.ErrorIs(t, err, config.ErrInvalidSettings)
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DOCEVENTS_LOG_LEVEL", "warn")
	t.Setenv("DOCEVENTS_CLOSE_PARALLEL_PHASES", "false")
	t.Setenv("DOCEVENTS_STORE_PATH", "/tmp/override.db")
	t.Setenv("DOCEVENTS_TRACING_SERVICE_NAME", "renderer")

	s, err := config.Load(writeFile(t, "docevents.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "warn", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format, "unset variables keep file values")
	assert.False(t, s.Close.ParallelPhases)
	assert.Equal(t, "/tmp/override.db", s.Store.Path)
	assert.Equal(t, "renderer", s.Tracing.ServiceName)
}

func TestApplyEnvInvalidBool(t *testing.T) {
	t.Setenv("DOCEVENTS_CLOSE_PARALLEL_PHASES", "sometimes")

	s := config.Default()
	assert.Error(t, s.ApplyEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Settings)
		wantErr string
	}{
		{"defaults", func(*config.Settings) {}, ""},
		{"bad level", func(s *config.Settings) { s.Log.Level = "loud" }, "log.level"},
		{"bad format", func(s *config.Settings) { s.Log.Format = "xml" }, "log.format"},
		{"bad driver", func(s *config.Settings) { s.Store.Driver = "redis" }, "store.driver"},
		{"sqlite without path", func(s *config.Settings) { s.Store.Driver = config.StoreSQLite }, "store.path"},
		{"sqlite with path", func(s *config.Settings) {
			s.Store.Driver = config.StoreSQLite
			s.Store.Path = ":memory:"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Default()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, config.ErrInvalidSettings)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := config.LogSettings{Level: in}.SlogLevel()
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

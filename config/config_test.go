package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "requests.db", cfg.Database.DSN)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.True(t, cfg.Stream.Enabled)
	assert.Equal(t, "math_operations", cfg.Stream.Name)
	assert.Equal(t, 2*time.Second, cfg.Stream.PublishTimeout)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Zero(t, cfg.Export.Interval)
	assert.Zero(t, cfg.Math.MaxN)
	assert.False(t, cfg.XRay.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("STREAM_ENABLED", "false")
	t.Setenv("EXPORT_INTERVAL", "1m")
	t.Setenv("MATH_MAX_N", "5000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr())
	assert.False(t, cfg.Stream.Enabled)
	assert.Equal(t, time.Minute, cfg.Export.Interval)
	assert.EqualValues(t, 5000, cfg.Math.MaxN)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
database:
  driver: postgres
  dsn: "host=db user=math dbname=math sslmode=disable"
storage:
  type: s3
  path: math-snapshots
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "math-snapshots", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched sections still get their defaults
	assert.Equal(t, "math_operations", cfg.Stream.Name)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: "sqlite3", DSN: "requests.db"},
			Stream:   StreamConfig{Enabled: true, Name: "math_operations", PublishTimeout: time.Second},
			Storage:  StorageConfig{Type: "local", Path: "./data"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "empty dsn", mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Type = "gcs" }, wantErr: true},
		{name: "enabled stream without name", mutate: func(c *Config) { c.Stream.Name = "" }, wantErr: true},
		{name: "disabled stream without name", mutate: func(c *Config) { c.Stream.Enabled = false; c.Stream.Name = "" }},
		{name: "zero publish timeout", mutate: func(c *Config) { c.Stream.PublishTimeout = 0 }, wantErr: true},
		{name: "negative export interval", mutate: func(c *Config) { c.Export.Interval = -time.Second }, wantErr: true},
		{name: "negative max n", mutate: func(c *Config) { c.Math.MaxN = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file path is CONFIG_PATH (fallback "./config.yaml"). A missing
// fallback file is not an error; a missing explicit file is.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate checks cross-field constraints that tags cannot express.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn: required")
	}

	switch c.Storage.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("storage.type: unsupported type %q", c.Storage.Type)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path: required")
	}

	if c.Stream.Enabled && c.Stream.Name == "" {
		return fmt.Errorf("stream.name: required when stream is enabled")
	}
	if c.Stream.PublishTimeout <= 0 {
		return fmt.Errorf("stream.publish_timeout: must be positive")
	}
	if c.Export.Interval < 0 {
		return fmt.Errorf("export.interval: must not be negative")
	}
	if c.Math.MaxN < 0 {
		return fmt.Errorf("math.max_n: must not be negative")
	}

	return nil
}

// Addr returns host:port for the redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Stream   StreamConfig   `yaml:"stream"`
	Storage  StorageConfig  `yaml:"storage"`
	Export   ExportConfig   `yaml:"export"`
	Math     MathConfig     `yaml:"math"`
	XRay     XRayConfig     `yaml:"xray"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	AppName         string        `yaml:"app_name"         env:"SERVER_APP_NAME"         env-default:"MathLog"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// DatabaseConfig selects the request log backend.
// Driver is "sqlite3" (DSN is a file path) or "postgres" (DSN is a lib/pq connection string).
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite3"`
	DSN    string `yaml:"dsn"    env:"DB_DSN"    env-default:"requests.db"`
}

// RedisConfig holds the connection used by the stream publisher and consumer.
type RedisConfig struct {
	Host     string `yaml:"host"     env:"REDIS_HOST"     env-default:"localhost"`
	Port     int    `yaml:"port"     env:"REDIS_PORT"     env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
}

// StreamConfig controls the best-effort fan-out of operation events.
type StreamConfig struct {
	Enabled        bool          `yaml:"enabled"         env:"STREAM_ENABLED"         env-default:"true"`
	Name           string        `yaml:"name"            env:"STREAM_NAME"            env-default:"math_operations"`
	PublishTimeout time.Duration `yaml:"publish_timeout" env:"STREAM_PUBLISH_TIMEOUT" env-default:"2s"`
	ConsumerGroup  string        `yaml:"consumer_group"  env:"STREAM_CONSUMER_GROUP"  env-default:"math_operations_loggers"`
}

// StorageConfig selects where log snapshots are written.
// Type is "local" (Path is a directory) or "s3" (Path is a bucket name).
type StorageConfig struct {
	Type string `yaml:"type" env:"STORAGE_TYPE" env-default:"local"`
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"./data/snapshots"`
}

// ExportConfig controls periodic log snapshots. Zero interval disables them.
type ExportConfig struct {
	Interval time.Duration `yaml:"interval" env:"EXPORT_INTERVAL" env-default:"0s"`
}

// MathConfig bounds integer inputs. MaxN of zero means unlimited.
type MathConfig struct {
	MaxN int64 `yaml:"max_n" env:"MATH_MAX_N" env-default:"0"`
}

// XRayConfig toggles AWS X-Ray request tracing.
type XRayConfig struct {
	Enabled     bool   `yaml:"enabled"      env:"XRAY_ENABLED"      env-default:"false"`
	SegmentName string `yaml:"segment_name" env:"XRAY_SEGMENT_NAME" env-default:"math-log-server"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

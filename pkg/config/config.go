package config

import "time"

// Config is the root configuration structure for keygate.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and admin throttling.
	Server ServerConfig `yaml:"server"`

	// Store contains configuration for the authoritative SQLite store
	// shared by the key registry and the quota ledger.
	Store StoreConfig `yaml:"store"`

	// Quota contains configuration for the quota ledger including backend
	// selection and the admission check timeout.
	Quota QuotaConfig `yaml:"quota"`

	// Usage contains configuration for usage recording and retention.
	Usage UsageConfig `yaml:"usage"`

	// Auth contains configuration for credential extraction.
	Auth AuthConfig `yaml:"auth"`

	// Telemetry contains observability configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AdminRatePerSecond throttles admin (provisioning) endpoints per
	// remote IP, as a brute-force guard.
	// Default: 5
	AdminRatePerSecond float64 `yaml:"admin_rate_per_second"`

	// AdminBurst is the burst size for the admin throttle.
	// Default: 10
	AdminBurst int `yaml:"admin_burst"`
}

// StoreConfig contains configuration for the authoritative SQLite store.
type StoreConfig struct {
	// Path is the SQLite database file path.
	// Default: "data/keygate.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// QuotaConfig contains configuration for the quota ledger.
type QuotaConfig struct {
	// Backend selects the counter store: "sqlite", "redis", or "memory".
	// The sqlite backend shares the authoritative store; memory loses
	// counters on restart and is intended for development.
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// CheckTimeout bounds the atomic check-and-increment call. On timeout
	// the request is denied (fail-closed), never admitted.
	// Default: 3s
	CheckTimeout time.Duration `yaml:"check_timeout"`

	// Redis configures the Redis backend when selected.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings for the quota ledger.
type RedisConfig struct {
	// Addr is the Redis server address ("host:port").
	Addr string `yaml:"addr"`

	// Password is the Redis password, if any.
	Password string `yaml:"password"`

	// DB is the Redis database number.
	DB int `yaml:"db"`

	// CounterTTL is how long counters outlive their day before Redis
	// reclaims them.
	// Default: 72h
	CounterTTL time.Duration `yaml:"counter_ttl"`
}

// UsageConfig contains configuration for usage recording.
type UsageConfig struct {
	// Disabled turns off usage recording entirely.
	Disabled bool `yaml:"disabled"`

	// Path is the usage database file path.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// Buffer is the async write channel size.
	// Default: 1000
	Buffer int `yaml:"buffer"`

	// WriteTimeout is the per-record storage write timeout.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// RetentionDays is how many days of records to keep. Zero keeps
	// records forever.
	// Default: 0
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Empty disables the scheduler.
	PruneSchedule string `yaml:"prune_schedule"`
}

// AuthConfig contains configuration for credential extraction.
type AuthConfig struct {
	// Sources lists where to look for the API credential, tried in order.
	// Default: X-API-Key header, Authorization Bearer, api_key query param.
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig describes one credential source.
type SourceConfig struct {
	// Type is "header" or "query".
	Type string `yaml:"type"`

	// Name is the header name or query parameter.
	Name string `yaml:"name"`

	// Scheme is an optional prefix scheme such as "Bearer".
	Scheme string `yaml:"scheme"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

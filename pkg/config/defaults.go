package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress      = "127.0.0.1:8080"
	DefaultReadTimeout        = 30 * time.Second
	DefaultWriteTimeout       = 30 * time.Second
	DefaultIdleTimeout        = 120 * time.Second
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultAdminRatePerSecond = 5.0
	DefaultAdminBurst         = 10

	// Store defaults
	DefaultStorePath        = "data/keygate.db"
	DefaultStoreBusyTimeout = 5 * time.Second

	// Quota defaults
	DefaultQuotaBackend      = "sqlite"
	DefaultQuotaCheckTimeout = 3 * time.Second
	DefaultRedisCounterTTL   = 72 * time.Hour

	// Usage defaults
	DefaultUsagePath         = "data/usage.db"
	DefaultUsageBuffer       = 1000
	DefaultUsageWriteTimeout = 5 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "json"
)

// DefaultSources returns the default credential extraction order.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{Type: "header", Name: "X-API-Key"},
		{Type: "header", Name: "Authorization", Scheme: "Bearer"},
		{Type: "query", Name: "api_key"},
	}
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.AdminRatePerSecond == 0 {
		cfg.Server.AdminRatePerSecond = DefaultAdminRatePerSecond
	}
	if cfg.Server.AdminBurst == 0 {
		cfg.Server.AdminBurst = DefaultAdminBurst
	}

	// Store defaults
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
	if cfg.Store.BusyTimeout == 0 {
		cfg.Store.BusyTimeout = DefaultStoreBusyTimeout
	}

	// Quota defaults
	if cfg.Quota.Backend == "" {
		cfg.Quota.Backend = DefaultQuotaBackend
	}
	if cfg.Quota.CheckTimeout == 0 {
		cfg.Quota.CheckTimeout = DefaultQuotaCheckTimeout
	}
	if cfg.Quota.Redis.CounterTTL == 0 {
		cfg.Quota.Redis.CounterTTL = DefaultRedisCounterTTL
	}

	// Usage defaults
	if cfg.Usage.Path == "" {
		cfg.Usage.Path = DefaultUsagePath
	}
	if cfg.Usage.Buffer == 0 {
		cfg.Usage.Buffer = DefaultUsageBuffer
	}
	if cfg.Usage.WriteTimeout == 0 {
		cfg.Usage.WriteTimeout = DefaultUsageWriteTimeout
	}

	// Auth defaults
	if len(cfg.Auth.Sources) == 0 {
		cfg.Auth.Sources = DefaultSources()
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
}

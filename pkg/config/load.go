package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that behavior.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention KEYGATE_SECTION_FIELD (e.g. KEYGATE_SERVER_LISTEN_ADDRESS) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format KEYGATE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("KEYGATE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("KEYGATE_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("KEYGATE_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("KEYGATE_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("KEYGATE_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Store overrides
	if val := os.Getenv("KEYGATE_STORE_PATH"); val != "" {
		cfg.Store.Path = val
	}
	if val := os.Getenv("KEYGATE_STORE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Store.BusyTimeout = d
		}
	}

	// Quota overrides
	if val := os.Getenv("KEYGATE_QUOTA_BACKEND"); val != "" {
		cfg.Quota.Backend = val
	}
	if val := os.Getenv("KEYGATE_QUOTA_CHECK_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Quota.CheckTimeout = d
		}
	}
	if val := os.Getenv("KEYGATE_QUOTA_REDIS_ADDR"); val != "" {
		cfg.Quota.Redis.Addr = val
	}
	if val := os.Getenv("KEYGATE_QUOTA_REDIS_PASSWORD"); val != "" {
		cfg.Quota.Redis.Password = val
	}
	if val := os.Getenv("KEYGATE_QUOTA_REDIS_DB"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Quota.Redis.DB = i
		}
	}
	if val := os.Getenv("KEYGATE_QUOTA_REDIS_COUNTER_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Quota.Redis.CounterTTL = d
		}
	}

	// Usage overrides
	if val := os.Getenv("KEYGATE_USAGE_DISABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Usage.Disabled = b
		}
	}
	if val := os.Getenv("KEYGATE_USAGE_PATH"); val != "" {
		cfg.Usage.Path = val
	}
	if val := os.Getenv("KEYGATE_USAGE_BUFFER"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Usage.Buffer = i
		}
	}
	if val := os.Getenv("KEYGATE_USAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Usage.RetentionDays = i
		}
	}
	if val := os.Getenv("KEYGATE_USAGE_PRUNE_SCHEDULE"); val != "" {
		cfg.Usage.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("KEYGATE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("KEYGATE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
}

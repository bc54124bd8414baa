package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g. "quota.backend").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateQuota(&cfg.Quota)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.AdminRatePerSecond < 0 {
		errs = append(errs, FieldError{
			Field:   "server.admin_rate_per_second",
			Message: "admin rate must be non-negative",
		})
	}

	return errs
}

func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "store.path",
			Message: "database path is required",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "store.busy_timeout",
			Message: "busy timeout must be positive",
		})
	}

	return errs
}

func validateQuota(cfg *QuotaConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite", "memory":
	case "redis":
		if cfg.Redis.Addr == "" {
			errs = append(errs, FieldError{
				Field:   "quota.redis.addr",
				Message: "redis address is required for the redis backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "quota.backend",
			Message: fmt.Sprintf("unsupported backend %q (must be sqlite, redis, or memory)", cfg.Backend),
		})
	}

	if cfg.CheckTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "quota.check_timeout",
			Message: "check timeout must be positive",
		})
	}
	if cfg.Redis.CounterTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "quota.redis.counter_ttl",
			Message: "counter TTL must be positive",
		})
	}

	return errs
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	if cfg.Disabled {
		return errs
	}

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "usage.path",
			Message: "database path is required when usage recording is enabled",
		})
	}
	if cfg.Buffer < 1 {
		errs = append(errs, FieldError{
			Field:   "usage.buffer",
			Message: "buffer size must be at least 1",
		})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.retention_days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "usage.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	for i, source := range cfg.Sources {
		if source.Type != "header" && source.Type != "query" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("auth.sources[%d].type", i),
				Message: fmt.Sprintf("unsupported source type %q (must be header or query)", source.Type),
			})
		}
		if source.Name == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("auth.sources[%d].name", i),
				Message: "source name is required",
			})
		}
		if source.Scheme != "" && source.Type != "header" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("auth.sources[%d].scheme", i),
				Message: "scheme only applies to header sources",
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unsupported level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unsupported format %q (must be json or text)", cfg.Logging.Format),
		})
	}

	return errs
}

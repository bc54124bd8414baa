package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Expected default config to validate, got: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListenAddress = ""
	cfg.Quota.Backend = "etcd"
	cfg.Telemetry.Logging.Level = "verbose"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("Expected 3 field errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestValidate_RedisBackendRequiresAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Quota.Backend = "redis"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for redis backend without addr")
	}
	if !strings.Contains(err.Error(), "quota.redis.addr") {
		t.Errorf("Expected quota.redis.addr error, got: %v", err)
	}

	cfg.Quota.Redis.Addr = "localhost:6379"
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config with redis addr set, got: %v", err)
	}
}

func TestValidate_InvalidPruneSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.Usage.PruneSchedule = "not a cron expression"

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "usage.prune_schedule") {
		t.Errorf("Expected prune schedule error, got: %v", err)
	}
}

func TestValidate_DisabledUsageSkipsChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Usage.Disabled = true
	cfg.Usage.Path = ""
	cfg.Usage.Buffer = 0

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected disabled usage section to skip validation, got: %v", err)
	}
}

func TestValidate_AuthSources(t *testing.T) {
	tests := []struct {
		name   string
		source SourceConfig
		field  string
	}{
		{"unsupported type", SourceConfig{Type: "cookie", Name: "key"}, "auth.sources[0].type"},
		{"missing name", SourceConfig{Type: "header"}, "auth.sources[0].name"},
		{"scheme on query", SourceConfig{Type: "query", Name: "api_key", Scheme: "Bearer"}, "auth.sources[0].scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Auth.Sources = []SourceConfig{tt.source}

			err := Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Expected %s error, got: %v", tt.field, err)
			}
		})
	}
}

package config

import (
	"strings"
	"time"

	"github.com/marmos91/gatehouse/internal/bytesize"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	cfg.Server.ApplyDefaults()
	applySessionDefaults(&cfg.Session)
	applyDirectoryDefaults(&cfg.Directory)
	applyObjectStoreDefaults(&cfg.ObjectStore)
	if cfg.Objects.MaxObjectSize == 0 {
		cfg.Objects.MaxObjectSize = 64 * bytesize.MiB
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "gatehouse"
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "gatehouse_session"
	}
	if cfg.Revocation.Enabled && cfg.Revocation.Backend == "" {
		cfg.Revocation.Backend = "memory"
	}
}

func applyDirectoryDefaults(cfg *DirectoryConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
}

func applyObjectStoreDefaults(cfg *ObjectStoreConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
}

// GetDefaultConfig returns a Config with all default values applied. Fields
// without a sensible default (bucket, directory URL, secret) stay empty.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

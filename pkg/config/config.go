package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/marmos91/gatehouse/internal/bytesize"
	"github.com/marmos91/gatehouse/pkg/api"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "GATEHOUSE"

// Config represents the gatehouse configuration.
//
// Configuration sources (in order of precedence):
//  1. Explicit secret environment variables (GATEHOUSE_SESSION_SECRET, ...)
//  2. Environment variables (GATEHOUSE_*)
//  3. Configuration file (YAML)
//  4. Secrets file, for secrets left blank above
//  5. Default values
//
// The configuration is loaded once at startup and never mutated afterwards.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Server configures the HTTP listener, CORS and per-request timeout
	Server api.APIConfig `mapstructure:"server" yaml:"server"`

	Session SessionConfig `mapstructure:"session" yaml:"session"`

	Directory DirectoryConfig `mapstructure:"directory" yaml:"directory"`

	ObjectStore ObjectStoreConfig `mapstructure:"objectstore" yaml:"objectstore"`

	Objects ObjectsConfig `mapstructure:"objects" yaml:"objects"`

	// SecretsFile is an optional JSON file holding ENC_KEY, AWS_ACCESS_KEY
	// and AWS_SECRET_ACCESS_KEY. Values from it only fill secrets that are
	// still empty after the config file and environment are applied.
	SecretsFile string `mapstructure:"secrets_file" yaml:"secrets_file,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR" yaml:"level"`

	// Format is text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint (host:port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint"`

	ProfileTypes []string `mapstructure:"profile_types" validate:"dive,oneof=cpu alloc_objects alloc_space inuse_objects inuse_space goroutines mutex_count mutex_duration block_count block_duration" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false no collectors are registered.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// SessionConfig configures signed session tokens and the cookie that carries them.
type SessionConfig struct {
	// Secret is the key material the signing key is derived from.
	// Override: GATEHOUSE_SESSION_SECRET. Secrets file key: ENC_KEY.
	Secret string `mapstructure:"secret" validate:"required,min=32" yaml:"secret"`

	// TTL bounds how long an issued session stays valid
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0" yaml:"ttl"`

	Issuer string `mapstructure:"issuer" validate:"required" yaml:"issuer"`

	CookieName string `mapstructure:"cookie_name" validate:"required,excludesall= ;=" yaml:"cookie_name"`

	CookieDomain string `mapstructure:"cookie_domain" yaml:"cookie_domain,omitempty"`

	// CookieInsecure drops the Secure attribute, for plain-HTTP local development only
	CookieInsecure bool `mapstructure:"cookie_insecure" yaml:"cookie_insecure"`

	Revocation RevocationConfig `mapstructure:"revocation" yaml:"revocation"`
}

// RevocationConfig enables server-side logout by remembering revoked token ids.
type RevocationConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Backend is "memory" (lost on restart) or "badger" (persisted under Path)
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=memory badger" yaml:"backend"`

	Path string `mapstructure:"path" validate:"required_if=Backend badger" yaml:"path,omitempty"`
}

// DirectoryConfig configures the LDAP directory used to verify credentials.
type DirectoryConfig struct {
	// URL is the directory address, e.g. ldap://localhost:389 or ldaps://dir:636
	URL string `mapstructure:"url" validate:"required,url" yaml:"url"`

	// BindDNTemplate turns a username into a DN, e.g. "uid=%s,ou=people,dc=example,dc=org".
	// Empty binds with the username as given.
	BindDNTemplate string `mapstructure:"bind_dn_template" yaml:"bind_dn_template,omitempty"`

	// Timeout bounds the dial and the bind of a single attempt
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0" yaml:"timeout"`

	StartTLS bool `mapstructure:"start_tls" yaml:"start_tls"`

	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// ObjectStoreConfig configures the S3 bucket behind the object proxy.
type ObjectStoreConfig struct {
	Bucket string `mapstructure:"bucket" validate:"required" yaml:"bucket"`

	Region string `mapstructure:"region" validate:"required" yaml:"region"`

	// Endpoint overrides the AWS endpoint for S3-compatible services (MinIO, Localstack)
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint,omitempty"`

	// AccessKeyID and SecretAccessKey are optional; when both are empty the
	// default AWS credential chain is used.
	// Overrides: GATEHOUSE_OBJECTSTORE_ACCESS_KEY_ID, GATEHOUSE_OBJECTSTORE_SECRET_ACCESS_KEY.
	AccessKeyID     string `mapstructure:"access_key_id" validate:"required_with=SecretAccessKey" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID" yaml:"secret_access_key,omitempty"`

	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`

	// Timeout bounds each HTTP request to the object store
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0" yaml:"timeout"`
}

// ObjectsConfig tunes the object proxy.
type ObjectsConfig struct {
	// AllowEmptyListing returns an empty list for prefixes with no entries
	// instead of failing the request.
	AllowEmptyListing bool `mapstructure:"allow_empty_listing" yaml:"allow_empty_listing"`

	// MaxObjectSize caps the size of an object returned by get_object
	MaxObjectSize bytesize.ByteSize `mapstructure:"max_object_size" validate:"gt=0" yaml:"max_object_size"`
}

// Load loads configuration from file, environment, secrets and defaults.
// A missing config file is not an error: defaults plus overrides are returned
// unvalidated so that commands such as "config show" work before init.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		cfg := GetDefaultConfig()
		if err := applySecrets(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := applySecrets(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, requiring the config file to exist and
// returning instructions when it does not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  gatehouse config init\n\n"+
				"Or specify a custom config file:\n"+
				"  gatehouse <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  gatehouse config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration as YAML with owner-only permissions,
// since it usually holds the session secret.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Redacted returns a copy of cfg with every secret masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.Session.Secret = mask(out.Session.Secret)
	out.ObjectStore.AccessKeyID = mask(out.ObjectStore.AccessKeyID)
	out.ObjectStore.SecretAccessKey = mask(out.ObjectStore.SecretAccessKey)
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func setupViper(v *viper.Viper, configPath string) {
	// GATEHOUSE_LOGGING_LEVEL=DEBUG overrides logging.level
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v, reflect.TypeOf(Config{}), "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// bindEnvKeys registers every leaf key of t with viper. AutomaticEnv alone
// only resolves keys viper already knows about from the file.
func bindEnvKeys(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if f.Type.Kind() == reflect.Struct {
			bindEnvKeys(v, f.Type, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// readConfigFile reports whether a config file was found and read.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// byteSizeDecodeHook accepts "64Mi", "10MB" or plain numbers for ByteSize fields.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook accepts "30s", "24h" or raw nanoseconds for time.Duration fields.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/gatehouse, ~/.config/gatehouse, or "."
// when no home directory is available.
func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gatehouse")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "gatehouse")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/gatehouse/internal/bytesize"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are escape sequences.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

const minimalConfig = `
session:
  secret: "` + testSecret + `"
directory:
  url: "ldap://localhost:389"
objectstore:
  bucket: "media"
`

func TestLoad_MinimalConfigAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("Expected session ttl 24h, got %v", cfg.Session.TTL)
	}
	if cfg.Session.CookieName != "gatehouse_session" {
		t.Errorf("Expected cookie name gatehouse_session, got %q", cfg.Session.CookieName)
	}
	if cfg.Session.CookieInsecure {
		t.Error("Expected secure cookies by default")
	}
	if cfg.Directory.Timeout != 5*time.Second {
		t.Errorf("Expected directory timeout 5s, got %v", cfg.Directory.Timeout)
	}
	if cfg.ObjectStore.Region != "us-east-1" {
		t.Errorf("Expected region us-east-1, got %q", cfg.ObjectStore.Region)
	}
	if cfg.Objects.AllowEmptyListing {
		t.Error("Expected empty listings to be rejected by default")
	}
	if cfg.Objects.MaxObjectSize != 64*bytesize.MiB {
		t.Errorf("Expected max object size 64Mi, got %v", cfg.Objects.MaxObjectSize)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	tmp := t.TempDir()
	content := `
logging:
  level: debug
  format: json
shutdown_timeout: 10s
server:
  port: 9000
  request_timeout: 15s
  cors:
    allowed_origins: ["http://localhost:5173"]
session:
  secret: "` + testSecret + `"
  ttl: 2h
  cookie_name: sid
  cookie_insecure: true
  revocation:
    enabled: true
    backend: badger
    path: "` + yamlSafePath(tmp) + `/revoked"
directory:
  url: "ldaps://dir.example.org:636"
  bind_dn_template: "uid=%s,ou=people,dc=example,dc=org"
  timeout: 2s
objectstore:
  bucket: media
  region: eu-west-1
  endpoint: "http://localhost:4566"
  access_key_id: AKIA
  secret_access_key: shh
  force_path_style: true
objects:
  allow_empty_listing: true
  max_object_size: 8Mi
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level normalized to DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected shutdown_timeout 10s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 9000 || cfg.Server.RequestTimeout != 15*time.Second {
		t.Errorf("Unexpected server config: %+v", cfg.Server)
	}
	if len(cfg.Server.CORS.AllowedOrigins) != 1 || cfg.Server.CORS.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("Unexpected CORS origins: %v", cfg.Server.CORS.AllowedOrigins)
	}
	if cfg.Session.TTL != 2*time.Hour || cfg.Session.CookieName != "sid" || !cfg.Session.CookieInsecure {
		t.Errorf("Unexpected session config: %+v", cfg.Session)
	}
	if cfg.Session.Revocation.Backend != "badger" {
		t.Errorf("Expected badger revocation backend, got %q", cfg.Session.Revocation.Backend)
	}
	if cfg.Directory.BindDNTemplate != "uid=%s,ou=people,dc=example,dc=org" {
		t.Errorf("Unexpected bind DN template %q", cfg.Directory.BindDNTemplate)
	}
	if !cfg.ObjectStore.ForcePathStyle || cfg.ObjectStore.Endpoint != "http://localhost:4566" {
		t.Errorf("Unexpected object store config: %+v", cfg.ObjectStore)
	}
	if !cfg.Objects.AllowEmptyListing || cfg.Objects.MaxObjectSize != 8*bytesize.MiB {
		t.Errorf("Unexpected objects config: %+v", cfg.Objects)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got error: %v", err)
	}
	if cfg.Session.Issuer != "gatehouse" {
		t.Errorf("Expected default issuer, got %q", cfg.Session.Issuer)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("GATEHOUSE_LOGGING_LEVEL", "warn")
	t.Setenv("GATEHOUSE_OBJECTSTORE_BUCKET", "other")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected env level WARN, got %q", cfg.Logging.Level)
	}
	if cfg.ObjectStore.Bucket != "other" {
		t.Errorf("Expected env bucket 'other', got %q", cfg.ObjectStore.Bucket)
	}
}

func TestLoad_SecretEnvironmentOverride(t *testing.T) {
	envSecret := strings.Repeat("e", 40)
	t.Setenv(EnvSessionSecret, envSecret)

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Session.Secret != envSecret {
		t.Error("Expected session secret from environment")
	}
}

func TestLoad_SecretsFileFillsBlanks(t *testing.T) {
	dir := t.TempDir()
	secretsPath := filepath.Join(dir, "secrets.json")
	secrets := `{"ENC_KEY": "` + strings.Repeat("k", 48) + `", "AWS_ACCESS_KEY": "AKIAFILE", "AWS_SECRET_ACCESS_KEY": "file-secret"}`
	if err := os.WriteFile(secretsPath, []byte(secrets), 0600); err != nil {
		t.Fatalf("Failed to write secrets file: %v", err)
	}

	content := `
secrets_file: "` + yamlSafePath(secretsPath) + `"
directory:
  url: "ldap://localhost:389"
objectstore:
  bucket: media
  access_key_id: AKIACONFIG
  secret_access_key: config-secret
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Session.Secret != strings.Repeat("k", 48) {
		t.Error("Expected session secret from secrets file")
	}
	if cfg.ObjectStore.AccessKeyID != "AKIACONFIG" {
		t.Errorf("Config file value must win over secrets file, got %q", cfg.ObjectStore.AccessKeyID)
	}
}

func TestLoad_BadSecretsFile(t *testing.T) {
	content := minimalConfig + "secrets_file: \"" + yamlSafePath(filepath.Join(t.TempDir(), "nope.json")) + "\"\n"
	if _, err := Load(writeConfig(t, content)); err == nil {
		t.Fatal("Expected error for unreadable secrets file")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name: "short secret",
			content: `
session: {secret: "too-short"}
directory: {url: "ldap://localhost:389"}
objectstore: {bucket: media}
`,
			wantMsg: "session.secret: must be at least 32 characters",
		},
		{
			name: "missing bucket",
			content: `
session: {secret: "` + testSecret + `"}
directory: {url: "ldap://localhost:389"}
`,
			wantMsg: "objectstore.bucket: is required",
		},
		{
			name: "missing directory url",
			content: `
session: {secret: "` + testSecret + `"}
objectstore: {bucket: media}
`,
			wantMsg: "directory.url: is required",
		},
		{
			name: "bad log format",
			content: minimalConfig + `
logging: {format: xml}
`,
			wantMsg: "logging.format: must be one of",
		},
		{
			name: "badger without path",
			content: `
session:
  secret: "` + testSecret + `"
  revocation: {enabled: true, backend: badger}
directory: {url: "ldap://localhost:389"}
objectstore: {bucket: media}
`,
			wantMsg: "session.revocation.path: is required when backend is set",
		},
		{
			name: "half static credentials",
			content: `
session: {secret: "` + testSecret + `"}
directory: {url: "ldap://localhost:389"}
objectstore: {bucket: media, access_key_id: AKIA}
`,
			wantMsg: "objectstore.secret_access_key: is required when access_key_id is set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	original, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveConfig(original, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Saved config missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("Expected 0600 permissions, got %o", perm)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if reloaded.Session.Secret != original.Session.Secret || reloaded.ObjectStore.Bucket != "media" {
		t.Error("Reloaded config does not match saved config")
	}
	if reloaded.Objects.MaxObjectSize != original.Objects.MaxObjectSize {
		t.Errorf("Max object size changed across save: %v vs %v", reloaded.Objects.MaxObjectSize, original.Objects.MaxObjectSize)
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := MustLoad(path)
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	if !strings.Contains(err.Error(), "gatehouse config init --config") {
		t.Errorf("Expected init instructions, got %q", err.Error())
	}
}

func TestMustLoad_DefaultLocation(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if DefaultConfigExists() {
		t.Fatal("Expected no default config yet")
	}
	if _, err := MustLoad(""); err == nil {
		t.Fatal("Expected error without default config")
	}

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if err := SaveConfig(cfg, GetDefaultConfigPath()); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if GetDefaultConfigPath() != filepath.Join(xdg, "gatehouse", "config.yaml") {
		t.Errorf("Unexpected default path %q", GetDefaultConfigPath())
	}
	if _, err := MustLoad(""); err != nil {
		t.Fatalf("Expected default config to load: %v", err)
	}
}

func TestRedacted(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Session.Secret = testSecret
	cfg.ObjectStore.SecretAccessKey = "shh"

	r := cfg.Redacted()
	if r.Session.Secret == testSecret || r.ObjectStore.SecretAccessKey == "shh" {
		t.Error("Expected secrets to be masked")
	}
	if r.ObjectStore.AccessKeyID != "" {
		t.Error("Expected empty values to stay empty")
	}
	if cfg.Session.Secret != testSecret {
		t.Error("Redacted must not modify the original")
	}
}

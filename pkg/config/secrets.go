package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/marmos91/gatehouse/internal/logger"
)

// Environment variables that override secrets regardless of other sources.
const (
	EnvSessionSecret        = "GATEHOUSE_SESSION_SECRET"
	EnvObjectStoreAccessKey = "GATEHOUSE_OBJECTSTORE_ACCESS_KEY_ID"
	EnvObjectStoreSecretKey = "GATEHOUSE_OBJECTSTORE_SECRET_ACCESS_KEY"
	EnvSecretsFile          = "GATEHOUSE_SECRETS_FILE"
)

// SecretsFile is the JSON document referenced by secrets_file.
type SecretsFile struct {
	EncKey             string `json:"ENC_KEY"`
	AWSAccessKey       string `json:"AWS_ACCESS_KEY"`
	AWSSecretAccessKey string `json:"AWS_SECRET_ACCESS_KEY"`
}

// ReadSecretsFile reads and decodes a secrets file.
func ReadSecretsFile(path string) (*SecretsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}
	var s SecretsFile
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}
	return &s, nil
}

// applySecrets fills blank secrets from the secrets file, then lets the
// explicit environment variables override everything.
func applySecrets(cfg *Config) error {
	if p := os.Getenv(EnvSecretsFile); p != "" {
		cfg.SecretsFile = p
	}

	if cfg.SecretsFile != "" {
		s, err := ReadSecretsFile(cfg.SecretsFile)
		if err != nil {
			return err
		}
		fillBlank(&cfg.Session.Secret, s.EncKey)
		fillBlank(&cfg.ObjectStore.AccessKeyID, s.AWSAccessKey)
		fillBlank(&cfg.ObjectStore.SecretAccessKey, s.AWSSecretAccessKey)
	}

	overrideFromEnv(&cfg.Session.Secret, EnvSessionSecret)
	overrideFromEnv(&cfg.ObjectStore.AccessKeyID, EnvObjectStoreAccessKey)
	overrideFromEnv(&cfg.ObjectStore.SecretAccessKey, EnvObjectStoreSecretKey)
	return nil
}

func fillBlank(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// overrideFromEnv prefers the environment variable, warning when it shadows
// a different value from the config file.
func overrideFromEnv(dst *string, name string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if *dst != "" && *dst != v {
		logger.Warn("environment variable overrides config file value", "env_var", name)
	}
	*dst = v
}

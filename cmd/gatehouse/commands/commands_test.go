package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gatehouse/pkg/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := GetRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	t.Cleanup(func() { Version = "dev" })

	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)

	out, err = execute(t, "version", "--short=false")
	require.NoError(t, err)
	assert.Contains(t, out, "gatehouse 1.2.3")
	assert.Contains(t, out, "Go version:")
}

func TestConfigInitValidateShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gatehouse", "config.yaml")

	out, err := execute(t, "config", "init", "--config", path, "--force",
		"--bucket", "photos", "--directory-url", "ldaps://ldap.example.org:636")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written to "+path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "photos", cfg.ObjectStore.Bucket)
	assert.Len(t, cfg.Session.Secret, 64)

	out, err = execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "photos")

	out, err = execute(t, "config", "show", "--config", path, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "objectstore.bucket")
	assert.NotContains(t, out, cfg.Session.Secret, "secret must be masked")

	out, err = execute(t, "config", "show", "--config", path, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "bucket: photos")
	assert.NotContains(t, out, cfg.Session.Secret)
}

func TestConfigInitGeneratesDistinctSecrets(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")

	_, err := execute(t, "config", "init", "--config", a, "--force")
	require.NoError(t, err)
	_, err = execute(t, "config", "init", "--config", b, "--force")
	require.NoError(t, err)

	cfgA, err := config.Load(a)
	require.NoError(t, err)
	cfgB, err := config.Load(b)
	require.NoError(t, err)
	assert.NotEqual(t, cfgA.Session.Secret, cfgB.Session.Secret)
}

func TestConfigValidateMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := execute(t, "config", "validate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gatehouse config init --config")
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema", "--output", "")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "gatehouse Configuration", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"session", "directory", "objectstore", "server"} {
		assert.Contains(t, props, key)
	}
}

func TestStartRequiresConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := execute(t, "start", "--config", path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "configuration file not found"))
}

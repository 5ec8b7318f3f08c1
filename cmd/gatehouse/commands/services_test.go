package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gatehouse/pkg/config"
	"github.com/marmos91/gatehouse/pkg/metrics"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Session.Secret = "services-test-secret-at-least-32-characters"
	cfg.Directory.URL = "ldap://127.0.0.1:389"
	cfg.ObjectStore.Bucket = "personal"
	cfg.ObjectStore.Region = "us-east-1"
	cfg.ObjectStore.Endpoint = "http://127.0.0.1:4566"
	cfg.ObjectStore.AccessKeyID = "test"
	cfg.ObjectStore.SecretAccessKey = "test"
	cfg.ObjectStore.ForcePathStyle = true
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func TestOpenRevocations(t *testing.T) {
	store, err := openRevocations(config.RevocationConfig{})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = openRevocations(config.RevocationConfig{Enabled: true, Backend: "memory"})
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NoError(t, store.Close())

	store, err = openRevocations(config.RevocationConfig{
		Enabled: true,
		Backend: "badger",
		Path:    filepath.Join(t.TempDir(), "revocations"),
	})
	require.NoError(t, err)
	require.NotNil(t, store)

	until := time.Now().Add(time.Hour)
	require.NoError(t, store.Revoke(context.Background(), "jti-1", until))
	revoked, err := store.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	require.NoError(t, store.Close())

	_, err = openRevocations(config.RevocationConfig{Enabled: true, Backend: "etcd"})
	assert.Error(t, err)
}

func TestBuildServices(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Revocation = config.RevocationConfig{Enabled: true, Backend: "memory"}

	svc, err := buildServices(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	assert.NotNil(t, svc.apiServer)
	assert.Nil(t, svc.metricsServer, "metrics are disabled by default")
	assert.Len(t, svc.closers, 1)
}

func TestBuildServicesWithMetrics(t *testing.T) {
	t.Cleanup(metrics.Reset)

	cfg := testConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0

	svc, err := buildServices(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	assert.NotNil(t, svc.metricsServer)
	assert.True(t, metrics.IsEnabled())
}

func TestBuildServicesRejectsShortSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.Secret = "short"

	_, err := buildServices(context.Background(), cfg)
	assert.Error(t, err)
}

func TestBuildServicesRejectsBadDirectoryURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Directory.URL = "http://not-ldap"

	_, err := buildServices(context.Background(), cfg)
	assert.Error(t, err)
}

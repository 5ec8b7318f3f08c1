//go:build integration

package directory_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/gatehouse/pkg/directory"
)

const (
	adminDN       = "cn=admin,dc=example,dc=org"
	adminPassword = "admin"
)

// startOpenLDAP starts an OpenLDAP container, or uses OPENLDAP_URL when set.
func startOpenLDAP(t *testing.T) string {
	t.Helper()
	if url := os.Getenv("OPENLDAP_URL"); url != "" {
		return url
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "osixia/openldap:1.5.0",
		ExposedPorts: []string{"389/tcp"},
		Env: map[string]string{
			"LDAP_ORGANISATION":   "Example",
			"LDAP_DOMAIN":         "example.org",
			"LDAP_ADMIN_PASSWORD": adminPassword,
			"LDAP_TLS":            "false",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("389/tcp"),
			wait.ForLog("slapd starting").WithStartupTimeout(60*time.Second),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start openldap container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "389")
	require.NoError(t, err)

	return fmt.Sprintf("ldap://%s:%s", host, port.Port())
}

func TestOpenLDAPBind(t *testing.T) {
	url := startOpenLDAP(t)

	client, err := directory.New(directory.Config{URL: url, Timeout: 5 * time.Second})
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		outcome, err := client.Bind(ctx, adminDN, adminPassword)
		require.NoError(t, err)
		assert.Equal(t, uint16(0), outcome.ResultCode)
		assert.Equal(t, adminDN, outcome.DN)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.Bind(ctx, adminDN, "nope")
		assert.ErrorIs(t, err, directory.ErrBindRejected)

		var rejected *directory.BindRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, uint16(49), rejected.ResultCode)
	})

	t.Run("template expansion", func(t *testing.T) {
		templated, err := directory.New(directory.Config{URL: url, BindDNTemplate: "cn=%s,dc=example,dc=org"})
		require.NoError(t, err)

		outcome, err := templated.Bind(ctx, "admin", adminPassword)
		require.NoError(t, err)
		assert.Equal(t, adminDN, outcome.DN)
	})
}

func TestUnreachableDirectory(t *testing.T) {
	client, err := directory.New(directory.Config{URL: "ldap://127.0.0.1:1", Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.Bind(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, directory.ErrConnection)
}

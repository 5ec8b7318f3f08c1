package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/gatehouse/pkg/directory"
	"github.com/marmos91/gatehouse/pkg/session"
	"github.com/marmos91/gatehouse/pkg/session/revocation"
)

const testSecret = "test-secret-key-must-be-32-chars!"

// fakeDirectory accepts any user whose password is "secret-" + username.
type fakeDirectory struct {
	err   error
	calls int
	mu    sync.Mutex
}

func (d *fakeDirectory) Bind(_ context.Context, username, password string) (*directory.BindOutcome, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()

	if username == "" || password == "" {
		return nil, directory.ErrEmptyCredentials
	}
	if d.err != nil {
		return nil, d.err
	}
	if password != "secret-"+username {
		return nil, &directory.BindRejectedError{ResultCode: 49}
	}
	return &directory.BindOutcome{DN: username}, nil
}

type recordingMetrics struct {
	mu           sync.Mutex
	logins       map[string]int
	authorized   int
	unauthorized int
}

func (m *recordingMetrics) ObserveLogin(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logins == nil {
		m.logins = make(map[string]int)
	}
	m.logins[outcome]++
}

func (m *recordingMetrics) RecordAuthorization(authorized bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if authorized {
		m.authorized++
	} else {
		m.unauthorized++
	}
}

type brokenSessions struct {
	*session.Store
}

func (brokenSessions) Issue(context.Context, string) (*session.Token, error) {
	return nil, session.ErrTokenSigningFailed
}

func newTestGateway(t *testing.T, revocations session.RevocationList) (*Gateway, *fakeDirectory, *recordingMetrics, *session.Store) {
	t.Helper()
	store, err := session.NewStore(session.Config{Secret: testSecret, TTL: time.Hour, Revocations: revocations})
	require.NoError(t, err)
	dir := &fakeDirectory{}
	metrics := &recordingMetrics{}
	return New(dir, store, metrics), dir, metrics, store
}

func TestLogin_Success(t *testing.T) {
	g, _, metrics, store := newTestGateway(t, nil)

	token, err := g.Login(context.Background(), Credentials{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", token.Subject)

	claims, err := store.Verify(context.Background(), token.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject, "subject must equal the submitted username")
	assert.Equal(t, 1, metrics.logins[OutcomeSuccess])
}

func TestLogin_Rejected(t *testing.T) {
	g, dir, metrics, _ := newTestGateway(t, nil)

	token, err := g.Login(context.Background(), Credentials{Username: "alice", Password: "wrong"})
	assert.Nil(t, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, metrics.logins[OutcomeRejected])

	_, err = g.Login(context.Background(), Credentials{Username: "alice"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 2, dir.calls)
}

func TestLogin_DirectoryUnavailable(t *testing.T) {
	g, dir, metrics, _ := newTestGateway(t, nil)
	dir.err = &directory.ConnectionError{URL: "ldap://x", Op: "dial", Err: errors.New("refused")}

	_, err := g.Login(context.Background(), Credentials{Username: "alice", Password: "secret-alice"})
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, metrics.logins[OutcomeUnavailable])
}

func TestLogin_SessionIssueFailure(t *testing.T) {
	_, dir, metrics, store := newTestGateway(t, nil)
	g := New(dir, brokenSessions{store}, metrics)

	_, err := g.Login(context.Background(), Credentials{Username: "alice", Password: "secret-alice"})
	assert.ErrorIs(t, err, ErrSessionIssue)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestLogin_ConcurrentSessionsAreIndependent(t *testing.T) {
	g, _, _, _ := newTestGateway(t, nil)
	ctx := context.Background()

	users := []string{"alice", "bob", "carol", "dave"}
	tokens := make([]*session.Token, len(users))
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			tok, err := g.Login(ctx, Credentials{Username: u, Password: "secret-" + u})
			assert.NoError(t, err)
			tokens[i] = tok
		}(i, u)
	}
	wg.Wait()

	for i, u := range users {
		require.NotNil(t, tokens[i])
		subject, err := g.CurrentUser(ctx, tokens[i].Value)
		require.NoError(t, err)
		assert.Equal(t, u, subject)
	}
}

func TestCurrentUser(t *testing.T) {
	g, _, _, _ := newTestGateway(t, nil)
	ctx := context.Background()

	_, err := g.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = g.CurrentUser(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	token, err := g.Login(ctx, Credentials{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)

	subject, err := g.CurrentUser(ctx, token.Value)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestAuthorize(t *testing.T) {
	g, _, metrics, _ := newTestGateway(t, nil)
	ctx := context.Background()

	result := g.Authorize(ctx, "")
	assert.False(t, result.Authorized)
	assert.Empty(t, result.Subject)

	token, err := g.Login(ctx, Credentials{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)

	result = g.Authorize(ctx, token.Value)
	assert.True(t, result.Authorized)
	assert.Equal(t, "alice", result.Subject)

	assert.Equal(t, 1, metrics.authorized)
	assert.Equal(t, 1, metrics.unauthorized)
}

func TestLogout_WithRevocation(t *testing.T) {
	g, _, _, _ := newTestGateway(t, revocation.NewMemory())
	ctx := context.Background()

	token, err := g.Login(ctx, Credentials{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)
	require.True(t, g.Authorize(ctx, token.Value).Authorized)

	g.Logout(ctx, token.Value)

	assert.False(t, g.Authorize(ctx, token.Value).Authorized, "revoked session must not authorize")
}

func TestLogout_WithoutRevocationIsStateless(t *testing.T) {
	g, _, _, _ := newTestGateway(t, nil)
	ctx := context.Background()

	token, err := g.Login(ctx, Credentials{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)

	g.Logout(ctx, token.Value)
	g.Logout(ctx, "")
	g.Logout(ctx, "garbage")

	assert.True(t, g.Authorize(ctx, token.Value).Authorized)
}

func TestNilMetrics(t *testing.T) {
	store, err := session.NewStore(session.Config{Secret: testSecret})
	require.NoError(t, err)
	g := New(&fakeDirectory{}, store, nil)

	_, err = g.Login(context.Background(), Credentials{Username: "alice", Password: "secret-alice"})
	require.NoError(t, err)
	assert.False(t, g.Authorize(context.Background(), "").Authorized)
}

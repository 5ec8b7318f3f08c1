// Package gateway ties the directory and the session store together into
// login, logout and per-request authorization.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/pkg/directory"
	"github.com/marmos91/gatehouse/pkg/session"
)

var (
	// ErrUnauthorized covers bad credentials and absent, invalid, expired or
	// tampered sessions, without telling them apart.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServiceUnavailable means the directory could not be asked.
	ErrServiceUnavailable = errors.New("authentication service unavailable")

	// ErrSessionIssue means the credentials were accepted but no session
	// could be issued.
	ErrSessionIssue = fmt.Errorf("%w: failed to issue session", ErrServiceUnavailable)
)

// Login outcomes, used as metric labels.
const (
	OutcomeSuccess     = "success"
	OutcomeRejected    = "rejected"
	OutcomeUnavailable = "unavailable"
)

// Credentials are a username and password as submitted. They are never
// persisted and the password is never logged.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthorizationResult is the per-request verdict of Authorize.
type AuthorizationResult struct {
	Authorized bool
	Subject    string
}

// Directory verifies credentials.
type Directory interface {
	Bind(ctx context.Context, username, password string) (*directory.BindOutcome, error)
}

// Sessions issues, verifies and revokes session tokens.
type Sessions interface {
	Issue(ctx context.Context, subject string) (*session.Token, error)
	Verify(ctx context.Context, value string) (*session.Claims, error)
	Revoke(ctx context.Context, claims *session.Claims) error
}

// Metrics records gateway activity. A nil Metrics records nothing.
type Metrics interface {
	ObserveLogin(outcome string, duration time.Duration)
	RecordAuthorization(authorized bool)
}

// Gateway is safe for concurrent use.
type Gateway struct {
	directory Directory
	sessions  Sessions
	metrics   Metrics
}

// New creates a gateway. metrics may be nil.
func New(dir Directory, sessions Sessions, metrics Metrics) *Gateway {
	return &Gateway{
		directory: dir,
		sessions:  sessions,
		metrics:   metrics,
	}
}

// Login verifies the credentials with the directory and issues a session
// whose subject is the submitted username.
func (g *Gateway) Login(ctx context.Context, creds Credentials) (*session.Token, error) {
	start := time.Now()

	_, err := g.directory.Bind(ctx, creds.Username, creds.Password)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrEmptyCredentials), errors.Is(err, directory.ErrBindRejected):
			g.observeLogin(OutcomeRejected, start)
			logger.InfoCtx(ctx, "Login rejected", logger.Subject(creds.Username), logger.Outcome(OutcomeRejected))
			return nil, ErrUnauthorized
		default:
			g.observeLogin(OutcomeUnavailable, start)
			logger.ErrorCtx(ctx, "Login failed: directory unavailable",
				logger.Subject(creds.Username), logger.Outcome(OutcomeUnavailable), logger.Err(err))
			return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
	}

	token, err := g.sessions.Issue(ctx, creds.Username)
	if err != nil {
		g.observeLogin(OutcomeUnavailable, start)
		logger.ErrorCtx(ctx, "Login failed: session not issued", logger.Subject(creds.Username), logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrSessionIssue, err)
	}

	g.observeLogin(OutcomeSuccess, start)
	logger.InfoCtx(ctx, "Login succeeded",
		logger.Subject(token.Subject), logger.TokenID(token.ID), logger.Outcome(OutcomeSuccess))
	return token, nil
}

// Logout revokes the session when it verifies and a revocation list is
// configured. It never fails: revocation problems are logged and the caller
// clears the cookie regardless.
func (g *Gateway) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := g.sessions.Verify(ctx, token)
	if err != nil {
		logger.DebugCtx(ctx, "Logout with unverifiable session", logger.Err(err))
		return
	}
	if err := g.sessions.Revoke(ctx, claims); err != nil {
		logger.WarnCtx(ctx, "Session revocation failed",
			logger.Subject(claims.Subject), logger.TokenID(claims.ID), logger.Err(err))
		return
	}
	logger.InfoCtx(ctx, "Logged out", logger.Subject(claims.Subject), logger.TokenID(claims.ID))
}

// CurrentUser returns the subject of a valid session, or ErrUnauthorized.
func (g *Gateway) CurrentUser(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	claims, err := g.sessions.Verify(ctx, token)
	if err != nil {
		logger.DebugCtx(ctx, "Session rejected", logger.Err(err))
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

// Authorize is the boolean-shaped form of CurrentUser, used per request by
// the authorization middleware.
func (g *Gateway) Authorize(ctx context.Context, token string) AuthorizationResult {
	subject, err := g.CurrentUser(ctx, token)
	result := AuthorizationResult{Authorized: err == nil, Subject: subject}
	if g.metrics != nil {
		g.metrics.RecordAuthorization(result.Authorized)
	}
	return result
}

func (g *Gateway) observeLogin(outcome string, start time.Time) {
	if g.metrics != nil {
		g.metrics.ObserveLogin(outcome, time.Since(start))
	}
}

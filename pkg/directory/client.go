// Package directory verifies user credentials with an LDAP simple bind.
//
// Every Bind opens a fresh connection, binds once and closes the connection
// on every exit path. There is no pooling and no retry.
package directory

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/internal/telemetry"
)

// DefaultTimeout bounds the dial and the bind of one attempt.
const DefaultTimeout = 5 * time.Second

// Config configures a Client.
type Config struct {
	// URL is ldap://host:port or ldaps://host:port
	URL string

	// BindDNTemplate expands a username into a DN. Every "%s" is replaced by
	// the DN-escaped username. Empty binds with the raw username.
	BindDNTemplate string

	Timeout time.Duration

	StartTLS bool

	InsecureSkipVerify bool
}

// BindOutcome describes a successful bind.
type BindOutcome struct {
	ResultCode uint16
	DN         string
}

// Conn is the part of *ldap.Conn the client needs.
type Conn interface {
	StartTLS(config *tls.Config) error
	SetTimeout(timeout time.Duration)
	Bind(username, password string) error
	Close() error
}

// Dialer opens a connection to the directory.
type Dialer func(url string, timeout time.Duration, tlsConfig *tls.Config) (Conn, error)

// Option customizes a Client.
type Option func(*Client)

// WithDialer replaces the network dialer. Used by tests.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dial = d }
}

// Client binds against a single directory. It holds no connection state and
// is safe for concurrent use.
type Client struct {
	cfg       Config
	tlsConfig *tls.Config
	dial      Dialer
}

// New creates a directory client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("directory url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid directory url: %w", err)
	}
	if u.Scheme != "ldap" && u.Scheme != "ldaps" && u.Scheme != "ldapi" {
		return nil, fmt.Errorf("invalid directory url scheme %q", u.Scheme)
	}
	if cfg.StartTLS && u.Scheme == "ldaps" {
		return nil, errors.New("start_tls cannot be combined with an ldaps url")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:  cfg,
		dial: dialLDAP,
		tlsConfig: &tls.Config{
			ServerName:         u.Hostname(),
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // only when insecure_skip_verify is configured
			MinVersion:         tls.VersionTLS12,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the configured directory URL.
func (c *Client) URL() string {
	return c.cfg.URL
}

// BindDN returns the DN a username binds as.
func (c *Client) BindDN(username string) string {
	if c.cfg.BindDNTemplate == "" {
		return username
	}
	return strings.ReplaceAll(c.cfg.BindDNTemplate, "%s", ldap.EscapeDN(username))
}

// Bind performs one simple bind with the given credentials.
//
// Errors:
//   - ErrEmptyCredentials when either value is empty (no network activity)
//   - *ConnectionError when the directory could not be reached or ctx ended
//   - *BindRejectedError when the directory refused the bind
func (c *Client) Bind(ctx context.Context, username, password string) (*BindOutcome, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	dn := c.BindDN(username)
	ctx, span := telemetry.StartDirectorySpan(ctx, c.cfg.URL, dn)
	defer span.End()

	start := time.Now()
	outcome, err := c.bind(ctx, dn, password)
	if err != nil {
		telemetry.RecordError(ctx, err)
		var rejected *BindRejectedError
		if errors.As(err, &rejected) {
			telemetry.SetAttributes(ctx, telemetry.DirectoryResult(rejected.ResultCode))
			logger.DebugCtx(ctx, "Directory bind rejected",
				logger.BindDN(dn), logger.ResultCode(rejected.ResultCode), logger.DurationMs(logger.Duration(start)))
		} else {
			logger.WarnCtx(ctx, "Directory bind failed",
				logger.BindDN(dn), logger.Err(err), logger.DurationMs(logger.Duration(start)))
		}
		return nil, err
	}

	telemetry.SetAttributes(ctx, telemetry.DirectoryResult(outcome.ResultCode))
	logger.DebugCtx(ctx, "Directory bind succeeded", logger.BindDN(dn), logger.DurationMs(logger.Duration(start)))
	return outcome, nil
}

func (c *Client) bind(ctx context.Context, dn, password string) (*BindOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ConnectionError{URL: c.cfg.URL, Op: "dial", Err: err}
	}

	var dialTLS *tls.Config
	if strings.HasPrefix(c.cfg.URL, "ldaps://") {
		dialTLS = c.tlsConfig
	}

	conn, err := c.dial(c.cfg.URL, c.cfg.Timeout, dialTLS)
	if err != nil {
		return nil, &ConnectionError{URL: c.cfg.URL, Op: "dial", Err: err}
	}
	defer func() { _ = conn.Close() }()

	conn.SetTimeout(c.cfg.Timeout)

	done := make(chan error, 1)
	go func() {
		if c.cfg.StartTLS {
			if err := conn.StartTLS(c.tlsConfig); err != nil {
				done <- &ConnectionError{URL: c.cfg.URL, Op: "starttls", Err: err}
				return
			}
		}
		if err := conn.Bind(dn, password); err != nil {
			done <- classifyBindError(c.cfg.URL, err)
			return
		}
		done <- nil
	}()

	select {
	case <-ctx.Done():
		// Closing the connection unblocks the pending bind.
		_ = conn.Close()
		return nil, &ConnectionError{URL: c.cfg.URL, Op: "bind", Err: ctx.Err()}
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return &BindOutcome{ResultCode: ldap.LDAPResultSuccess, DN: dn}, nil
	}
}

// ldapConn adapts *ldap.Conn to Conn.
type ldapConn struct {
	*ldap.Conn
}

func (c ldapConn) Close() error {
	c.Conn.Close()
	return nil
}

func dialLDAP(addr string, timeout time.Duration, tlsConfig *tls.Config) (Conn, error) {
	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: timeout})}
	if tlsConfig != nil {
		opts = append(opts, ldap.DialWithTLSConfig(tlsConfig))
	}
	conn, err := ldap.DialURL(addr, opts...)
	if err != nil {
		return nil, err
	}
	return ldapConn{conn}, nil
}

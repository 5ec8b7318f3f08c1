package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/internal/telemetry"
)

// MinSecretLength is the minimum length of the configured secret in bytes.
const MinSecretLength = 32

// keyDerivationInfo binds derived keys to this use. Changing it invalidates
// every outstanding session.
const keyDerivationInfo = "gatehouse session v1"

var (
	ErrInvalidToken        = errors.New("invalid session token")
	ErrExpiredToken        = fmt.Errorf("%w: token has expired", ErrInvalidToken)
	ErrRevokedToken        = fmt.Errorf("%w: token has been revoked", ErrInvalidToken)
	ErrEmptySubject        = errors.New("session subject must not be empty")
	ErrInvalidSecretLength = fmt.Errorf("session secret must be at least %d characters", MinSecretLength)
	ErrTokenSigningFailed  = errors.New("failed to sign session token")
)

// RevocationList remembers revoked token ids until the tokens would have
// expired anyway. Implementations must be safe for concurrent use.
type RevocationList interface {
	Revoke(ctx context.Context, id string, until time.Time) error
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// Config configures a Store.
type Config struct {
	// Secret is the key material. The signing key is derived from it.
	Secret string

	// Issuer is written to and required in the iss claim. Default: "gatehouse"
	Issuer string

	// TTL is the lifetime of issued tokens. Default: 24h
	TTL time.Duration

	// Revocations is optional; nil disables server-side revocation.
	Revocations RevocationList

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Store issues and verifies session tokens. It is safe for concurrent use.
type Store struct {
	key         []byte
	issuer      string
	ttl         time.Duration
	revocations RevocationList
	now         func() time.Time
}

// NewStore creates a session store, deriving the HS256 key from the secret.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrInvalidSecretLength
	}

	if cfg.Issuer == "" {
		cfg.Issuer = "gatehouse"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	key, err := deriveKey([]byte(cfg.Secret))
	if err != nil {
		return nil, err
	}

	return &Store{
		key:         key,
		issuer:      cfg.Issuer,
		ttl:         cfg.TTL,
		revocations: cfg.Revocations,
		now:         cfg.Now,
	}, nil
}

func deriveKey(secret []byte) ([]byte, error) {
	key := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, secret, nil, []byte(keyDerivationInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return key, nil
}

// TTL returns the lifetime of issued tokens.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// RevocationEnabled reports whether a revocation list is attached.
func (s *Store) RevocationEnabled() bool {
	return s.revocations != nil
}

// Issue signs a new token for subject.
func (s *Store) Issue(ctx context.Context, subject string) (*Token, error) {
	if subject == "" {
		return nil, ErrEmptySubject
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSessionIssue)
	defer span.End()

	now := s.now()
	expiresAt := now.Add(s.ttl)
	id := uuid.NewString()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        id,
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, ErrTokenSigningFailed
	}

	telemetry.SetAttributes(ctx, telemetry.Subject(subject), telemetry.TokenID(id))
	logger.DebugCtx(ctx, "Session issued", logger.Subject(subject), logger.TokenID(id))

	return &Token{
		Value:     value,
		Subject:   subject,
		ID:        id,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks the token's signature, issuer, validity window and subject,
// and consults the revocation list when one is attached.
//
// Every failure wraps ErrInvalidToken.
func (s *Store) Verify(ctx context.Context, value string) (*Claims, error) {
	if value == "" {
		return nil, ErrInvalidToken
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSessionVerify)
	defer span.End()

	token, err := jwt.ParseWithClaims(value, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	if s.revocations != nil && claims.ID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			telemetry.RecordError(ctx, err)
			return nil, fmt.Errorf("%w: revocation lookup failed: %v", ErrInvalidToken, err)
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}

	telemetry.SetAttributes(ctx, telemetry.Subject(claims.Subject), telemetry.TokenID(claims.ID))
	return claims, nil
}

// Revoke records the token id until the token's own expiry. It is a no-op
// when no revocation list is attached.
func (s *Store) Revoke(ctx context.Context, claims *Claims) error {
	if s.revocations == nil || claims == nil || claims.ID == "" {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.expiry()); err != nil {
		return fmt.Errorf("failed to revoke session %s: %w", claims.ID, err)
	}
	telemetry.AddEvent(ctx, "session.revoked", telemetry.TokenID(claims.ID))
	return nil
}

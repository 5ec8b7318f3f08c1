// Package session issues and verifies the signed session tokens that back
// the gatehouse cookie.
//
// Sessions are stateless: the token carries the subject and its validity
// window, and the client holds the only copy. An optional RevocationList
// lets logout invalidate a token before it expires.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims carried by a session token. Subject is the
// authenticated username; ID (jti) identifies the token for revocation.
type Claims struct {
	jwt.RegisteredClaims
}

// Token is a freshly issued session token.
type Token struct {
	// Value is the compact JWS to place in the cookie.
	Value string

	Subject string

	// ID is the token's jti.
	ID string

	ExpiresAt time.Time
}

// expiry returns the exp claim, or the zero time if absent.
func (c *Claims) expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

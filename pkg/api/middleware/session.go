// Package middleware provides HTTP middleware for the gatehouse API.
package middleware

import (
	"context"
	"net/http"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/pkg/api/handlers"
	"github.com/marmos91/gatehouse/pkg/gateway"
)

// NotLoggedInDetail is the problem detail of every rejected request.
const NotLoggedInDetail = "not logged in"

type contextKey string

const subjectContextKey contextKey = "subject"

// Authorizer decides whether a session token grants access.
type Authorizer interface {
	Authorize(ctx context.Context, token string) gateway.AuthorizationResult
}

// CookieReader extracts the session token from a request.
type CookieReader interface {
	Read(r *http.Request) (string, bool)
}

// RequireSession lets a request through only when its session cookie
// authorizes. Rejected requests get a 401 and never reach next; accepted
// requests reach next unchanged apart from the subject in their context.
func RequireSession(authorizer Authorizer, cookies CookieReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _ := cookies.Read(r)

			result := authorizer.Authorize(r.Context(), token)
			if !result.Authorized {
				logger.DebugCtx(r.Context(), "Request rejected: no valid session")
				handlers.Unauthorized(w, NotLoggedInDetail)
				return
			}

			ctx := context.WithValue(r.Context(), subjectContextKey, result.Subject)
			if lc := logger.FromContext(ctx); lc != nil {
				ctx = logger.WithContext(ctx, lc.WithSubject(result.Subject))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFromContext returns the authenticated subject, or "" outside
// RequireSession.
func SubjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectContextKey).(string)
	return subject
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/pkg/gateway"
	"github.com/marmos91/gatehouse/pkg/session"
)

// InvalidCredentialsDetail is the detail of every failed login, whatever the
// directory said.
const InvalidCredentialsDetail = "invalid username or password"

// Authenticator is the part of the gateway the auth handlers need.
type Authenticator interface {
	Login(ctx context.Context, creds gateway.Credentials) (*session.Token, error)
	Logout(ctx context.Context, token string)
	CurrentUser(ctx context.Context, token string) (string, error)
}

// AuthHandler handles login, logout and current-user requests.
type AuthHandler struct {
	gateway Authenticator
	cookies *session.Cookies
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(gw Authenticator, cookies *session.Cookies) *AuthHandler {
	return &AuthHandler{gateway: gw, cookies: cookies}
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SubjectResponse is the body of GET /user.
type SubjectResponse struct {
	Subject string `json:"subject"`
}

// StatusResponse is a bare status acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds gateway.Credentials
	if !decodeJSONBody(w, r, &creds) {
		return
	}

	token, err := h.gateway.Login(r.Context(), creds)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrUnauthorized):
			Unauthorized(w, InvalidCredentialsDetail)
		default:
			logger.ErrorCtx(r.Context(), "Login could not be completed", logger.Err(err))
			InternalServerError(w, "Authentication service unavailable")
		}
		return
	}

	h.cookies.Set(w, token)
	WriteJSONOK(w, LoginResponse{Subject: token.Subject, ExpiresAt: token.ExpiresAt.UTC()})
}

// Logout handles POST /logout. The cookie is cleared even if revocation fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if value, ok := h.cookies.Read(r); ok {
		h.gateway.Logout(r.Context(), value)
	}
	h.cookies.Clear(w)
	WriteJSONOK(w, StatusResponse{Status: "logged out"})
}

// User handles GET /user.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	value, _ := h.cookies.Read(r)
	subject, err := h.gateway.CurrentUser(r.Context(), value)
	if err != nil {
		Unauthorized(w, "not logged in")
		return
	}
	WriteJSONOK(w, SubjectResponse{Subject: subject})
}

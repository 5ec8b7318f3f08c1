package session

import (
	"net/http"
	"time"
)

// CookieConfig configures the session cookie.
type CookieConfig struct {
	// Name of the cookie. Default: "gatehouse_session"
	Name string

	// Domain is optional; empty scopes the cookie to the request host.
	Domain string

	// Insecure drops the Secure attribute so the cookie survives plain HTTP.
	// Only for local development.
	Insecure bool
}

// Cookies moves session tokens in and out of HTTP cookies.
//
// The cookie has no Max-Age: it lives for the browser session and the
// token's own exp claim bounds its validity.
type Cookies struct {
	cfg CookieConfig
}

// NewCookies creates a cookie transport.
func NewCookies(cfg CookieConfig) *Cookies {
	if cfg.Name == "" {
		cfg.Name = "gatehouse_session"
	}
	return &Cookies{cfg: cfg}
}


// Set writes the session cookie carrying token.
func (c *Cookies) Set(w http.ResponseWriter, token *Token) {
	http.SetCookie(w, c.cookie(token.Value))
}

// Clear instructs the client to drop the session cookie.
func (c *Cookies) Clear(w http.ResponseWriter) {
	cookie := c.cookie("")
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}

// Read returns the session token from the request, if present and non-empty.
func (c *Cookies) Read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.cfg.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (c *Cookies) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.Name,
		Value:    value,
		Path:     "/",
		Domain:   c.cfg.Domain,
		HttpOnly: true,
		Secure:   !c.cfg.Insecure,
		SameSite: http.SameSiteLaxMode,
	}
}

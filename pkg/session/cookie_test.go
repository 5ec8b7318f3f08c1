package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookies_SetAttributes(t *testing.T) {
	c := NewCookies(CookieConfig{Domain: "example.org"})
	rec := httptest.NewRecorder()

	c.Set(rec, &Token{Value: "abc", ExpiresAt: time.Now().Add(time.Hour)})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "gatehouse_session", cookie.Name)
	assert.Equal(t, "abc", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, "example.org", cookie.Domain)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Zero(t, cookie.MaxAge, "session cookie must not be persistent")
}

func TestCookies_Insecure(t *testing.T) {
	c := NewCookies(CookieConfig{Name: "sid", Insecure: true})
	rec := httptest.NewRecorder()
	c.Set(rec, &Token{Value: "abc"})

	cookie := rec.Result().Cookies()[0]
	assert.Equal(t, "sid", cookie.Name)
	assert.False(t, cookie.Secure)
}

func TestCookies_Clear(t *testing.T) {
	c := NewCookies(CookieConfig{})
	rec := httptest.NewRecorder()
	c.Clear(rec)

	header := rec.Header().Get("Set-Cookie")
	assert.Contains(t, header, "gatehouse_session=;")
	assert.Contains(t, header, "Max-Age=0")
	assert.Contains(t, header, "HttpOnly")
}

func TestCookies_Read(t *testing.T) {
	c := NewCookies(CookieConfig{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := c.Read(req)
	assert.False(t, ok)

	req.AddCookie(&http.Cookie{Name: "gatehouse_session", Value: ""})
	_, ok = c.Read(req)
	assert.False(t, ok, "empty cookie counts as absent")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "other", Value: "x"})
	req.AddCookie(&http.Cookie{Name: "gatehouse_session", Value: "tok"})
	value, ok := c.Read(req)
	assert.True(t, ok)
	assert.Equal(t, "tok", value)
}

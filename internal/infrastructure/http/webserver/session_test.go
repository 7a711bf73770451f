package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newCookies(t *testing.T) *SessionCookies {
	return NewSessionCookies(CookieConfig{Name: "cardapio_session", TTL: 2 * time.Hour, Secure: true}, zaptest.NewLogger(t))
}

func TestSessionCookies_IssuesNewID(t *testing.T) {
	s := newCookies(t)
	rec := httptest.NewRecorder()

	id := s.ID(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "cardapio_session", c.Name)
	assert.Equal(t, id, c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 7200, c.MaxAge)
}

func TestSessionCookies_ReusesValidID(t *testing.T) {
	s := newCookies(t)
	existing := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cardapio_session", Value: existing})

	assert.Equal(t, existing, s.ID(httptest.NewRecorder(), req))
}

func TestSessionCookies_ReplacesForgedID(t *testing.T) {
	s := newCookies(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "cardapio_session", Value: "../../etc/passwd"})

	_, ok := s.Lookup(req)
	assert.False(t, ok)

	id := s.ID(httptest.NewRecorder(), req)
	assert.NotEqual(t, "../../etc/passwd", id)
}

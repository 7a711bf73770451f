// Package webserver provides session cookie management for the web frontend
package webserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// SessionCookies hands out planner session IDs. The cookie only carries an
// opaque ID; all state lives in the session repository.
type SessionCookies struct {
	config CookieConfig
	logger *zap.Logger
}

// NewSessionCookies creates a cookie manager
func NewSessionCookies(config CookieConfig, logger *zap.Logger) *SessionCookies {
	return &SessionCookies{
		config: config,
		logger: logger.Named("session-cookies"),
	}
}

// ID returns the session ID carried by the request, issuing a new cookie
// when there is none or it is not a valid UUID. The cookie is refreshed on
// every call so an active session does not expire mid-flow.
func (s *SessionCookies) ID(w http.ResponseWriter, r *http.Request) string {
	id, ok := s.Lookup(r)
	if !ok {
		id = uuid.NewString()
		s.logger.Debug("Issued session", zap.String("session_id", id))
	}
	s.set(w, id)
	return id
}

// Lookup returns the request's session ID without issuing one
func (s *SessionCookies) Lookup(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.config.Name)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}

func (s *SessionCookies) set(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.Name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.TTL.Seconds()),
	})
}

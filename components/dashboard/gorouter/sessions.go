package gorouter

import (
	"crypto/sha256"
	"time"

	router "github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// DefaultSessionCookie names the cookie carrying the signed session id.
const DefaultSessionCookie = "gd_session"

// SessionCookies issues and verifies signed session id cookies.
type SessionCookies struct {
	name   string
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

// SessionCookieOption customizes SessionCookies.
type SessionCookieOption func(*SessionCookies)

// WithCookieName overrides the cookie name.
func WithCookieName(name string) SessionCookieOption {
	return func(s *SessionCookies) {
		if name != "" {
			s.name = name
		}
	}
}

// WithSecureCookie marks the cookie Secure.
func WithSecureCookie(secure bool) SessionCookieOption {
	return func(s *SessionCookies) {
		s.secure = secure
	}
}

// NewSessionCookies derives signing and encryption keys from secret. An
// empty secret uses random keys, so sessions do not survive a restart.
func NewSessionCookies(secret string, ttl time.Duration, opts ...SessionCookieOption) *SessionCookies {
	var hashKey, blockKey []byte
	if secret == "" {
		hashKey = securecookie.GenerateRandomKey(32)
		blockKey = securecookie.GenerateRandomKey(32)
	} else {
		h := sha256.Sum256([]byte(secret))
		b := sha256.Sum256([]byte(secret + ":block"))
		hashKey, blockKey = h[:], b[:]
	}
	s := &SessionCookies{
		name:  DefaultSessionCookie,
		codec: securecookie.New(hashKey, blockKey),
		ttl:   ttl,
	}
	if ttl > 0 {
		s.codec.MaxAge(int(ttl.Seconds()))
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the viewer for the request, issuing a new session cookie
// when none is present or the existing one fails verification.
func (s *SessionCookies) Resolve(ctx router.Context) dashboard.ViewerContext {
	if raw := ctx.Cookies(s.name); raw != "" {
		var id string
		if err := s.codec.Decode(s.name, raw, &id); err == nil && id != "" {
			return dashboard.ViewerContext{SessionID: id}
		}
	}
	id := uuid.NewString()
	encoded, err := s.codec.Encode(s.name, id)
	if err == nil {
		ctx.Cookie(&router.Cookie{
			Name:     s.name,
			Value:    encoded,
			Path:     "/",
			MaxAge:   int(s.ttl.Seconds()),
			Secure:   s.secure,
			HTTPOnly: true,
			SameSite: router.CookieSameSiteLaxMode,
		})
	}
	return dashboard.ViewerContext{SessionID: id}
}

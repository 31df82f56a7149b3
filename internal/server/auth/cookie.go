package auth

import (
	"net/http"
	"time"

	"github.com/bridgeclub/clubhouse/internal/common"
)

// SetCookie writes the session cookie: HttpOnly, SameSite=Lax, Secure
// outside development, living as long as the token.
func (c *Codec) SetCookie(w http.ResponseWriter, token string, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Revoke deletes the session cookie.
func (c *Codec) Revoke(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

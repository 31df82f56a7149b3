// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL applies when a Codec is built with a non-positive TTL.
const DefaultSessionTTL = time.Hour

// Claims is the signed session payload: the registered exp claim plus the
// user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Session is a verified session payload.
type Session struct {
	UserID    string
	ExpiresAt time.Time
}

// Codec signs and verifies HS256 session tokens and manages the session cookie.
type Codec struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
	logger logging.Logger
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock replaces time.Now; used by tests to step over expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a Codec. secure controls the cookie Secure attribute and
// should be false only for local development.
func NewCodec(secret string, ttl time.Duration, secure bool, logger logging.Logger, opts ...Option) *Codec {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	c := &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
		logger: logger.With("module", "session"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TTL returns the lifetime of issued tokens.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a token for userID that expires TTL from now.
func (c *Codec) Issue(userID string) (string, Session, error) {
	if userID == "" {
		return "", Session{}, fmt.Errorf("issue session: %w", common.ErrorValidation)
	}

	expiresAt := c.now().Add(c.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(c.now()),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", Session{}, err
	}

	return tokenString, Session{UserID: userID, ExpiresAt: expiresAt.Truncate(time.Second)}, nil
}

// Decode validates signature, algorithm and expiry and returns the payload.
// Expired tokens yield common.ErrTokenExpired; anything else wrong yields
// common.ErrInvalidToken.
func (c *Codec) Decode(tokenString string) (Session, error) {
	if tokenString == "" {
		return Session{}, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, common.ErrTokenExpired
		}
		return Session{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.UserID == "" {
		return Session{}, common.ErrInvalidToken
	}

	return Session{UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify is the fail-closed form of Decode: every failure is logged and
// reported as "no session".
func (c *Codec) Verify(ctx context.Context, tokenString string) (Session, bool) {
	if tokenString == "" {
		return Session{}, false
	}
	s, err := c.Decode(tokenString)
	if err != nil {
		c.logger.Warn(ctx, "session rejected", "error", err.Error())
		return Session{}, false
	}
	return s, true
}

// FromRequest verifies the session cookie of r.
func (c *Codec) FromRequest(r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(common.SessionCookieName)
	if err != nil {
		return Session{}, false
	}
	return c.Verify(r.Context(), cookie.Value)
}

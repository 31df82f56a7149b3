// Package access decides who may reach what: the route-classification
// guard in front of every request and the group-membership predicate used by
// the file endpoints.
package access

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/bridgeclub/clubhouse/internal/server/auth"
	"github.com/bridgeclub/clubhouse/internal/server/respond"
)

// Class is the authentication requirement of a route prefix.
type Class int

const (
	// Open routes pass through whatever the session state.
	Open Class = iota
	// Protected pages redirect anonymous visitors to the login page.
	Protected
	// PublicOnly pages (login, register) redirect signed-in users away.
	PublicOnly
	// API routes answer 401 JSON to anonymous callers.
	API
)

func (c Class) String() string {
	switch c {
	case Open:
		return "open"
	case Protected:
		return "protected"
	case PublicOnly:
		return "public-only"
	case API:
		return "api"
	default:
		return "unknown"
	}
}

// Route binds a path prefix to a Class. Prefixes match whole path segments:
// "/dashboard" covers "/dashboard" and "/dashboard/stats", not "/dashboards".
type Route struct {
	Prefix string
	Class  Class
}

// Paths the guard redirects to.
const (
	LoginPath   = "/login"
	LandingPath = "/dashboard"
)

// DefaultRoutes is the single route-classification table of the server.
var DefaultRoutes = []Route{
	{Prefix: "/healthz", Class: Open},
	{Prefix: "/api/auth", Class: Open},
	{Prefix: "/api", Class: API},
	{Prefix: "/dashboard", Class: Protected},
	{Prefix: "/onboarding", Class: Protected},
	{Prefix: "/login", Class: PublicOnly},
	{Prefix: "/register", Class: PublicOnly},
}

// Classify returns the class of the longest prefix in routes matching path,
// or Open when none matches.
func Classify(routes []Route, path string) Class {
	best, bestLen := Open, -1
	for _, r := range routes {
		if matchPrefix(r.Prefix, path) && len(r.Prefix) > bestLen {
			best, bestLen = r.Class, len(r.Prefix)
		}
	}
	return best
}

func matchPrefix(prefix, path string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// SessionVerifier extracts a verified session from a request.
type SessionVerifier interface {
	FromRequest(r *http.Request) (auth.Session, bool)
}

type ctxKey string

const userIDKey ctxKey = "userID"

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user id stored by the guard.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// Guard applies a route table to every request.
type Guard struct {
	routes   []Route
	sessions SessionVerifier
}

// NewGuard builds a Guard over routes.
func NewGuard(routes []Route, sessions SessionVerifier) *Guard {
	return &Guard{routes: routes, sessions: sessions}
}

// Middleware wraps next with the guard. A valid session's user id is put in
// the request context regardless of the route class.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := g.sessions.FromRequest(r)
		if ok {
			r = r.WithContext(WithUserID(r.Context(), session.UserID))
		}

		switch Classify(g.routes, r.URL.Path) {
		case Protected:
			if !ok {
				target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusTemporaryRedirect)
				return
			}
		case PublicOnly:
			if ok {
				http.Redirect(w, r, LandingPath, http.StatusTemporaryRedirect)
				return
			}
		case API:
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

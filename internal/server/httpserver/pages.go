package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/bridgeclub/clubhouse/internal/server/respond"
)

const healthTimeout = 2 * time.Second

// The page routes return the data a client renders; markup is not served.

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard.Load(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "dashboard", d)
}

func (s *Server) handleOnboardingPage(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Users.Get(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "onboarding", map[string]any{
		"user":      u,
		"completed": u.Onboarded(),
		"submit":    "/api/me/onboarding",
	})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "login", map[string]string{
		"submit": "/api/auth/login",
		"next":   r.URL.Query().Get("next"),
	})
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "register", map[string]string{"submit": "/api/auth/register"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.deps.DB.PingContext(ctx); err != nil {
			s.logger.Error(r.Context(), "health check failed", "error", err)
			respond.Error(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}

package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/server/models"
	"github.com/bridgeclub/clubhouse/internal/server/respond"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateMeRequest struct {
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

type onboardingRequest struct {
	Academy          string `json:"academy"`
	BirthYear        int    `json:"birthYear"`
	StartedPlayingOn string `json:"startedPlayingOn"` // YYYY-MM-DD
	TrainingGroup    string `json:"trainingGroup"`
	IsReferee        bool   `json:"isReferee"`
	BBOUsername      string `json:"bboUsername"`
	FederationID     string `json:"federationId"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.deps.Users.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.startSession(w, u.ID); err != nil {
		s.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, "user registered", u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.deps.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.startSession(w, u.ID); err != nil {
		s.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "login successful", u)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Sessions.Revoke(w)
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (s *Server) startSession(w http.ResponseWriter, userID string) error {
	token, session, err := s.deps.Sessions.Issue(userID)
	if err != nil {
		return fmt.Errorf("issue session: %w", err)
	}
	s.deps.Sessions.SetCookie(w, token, session)
	return nil
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Users.Get(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", u)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.deps.Users.UpdateProfile(r.Context(), userID(r), req.Name, req.Nickname)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", u)
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	var started time.Time
	if req.StartedPlayingOn != "" {
		t, err := time.Parse(time.DateOnly, req.StartedPlayingOn)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: startedPlayingOn must be YYYY-MM-DD", common.ErrorValidation))
			return
		}
		started = t
	}

	u, err := s.deps.Users.CompleteOnboarding(r.Context(), userID(r), models.Profile{
		Academy:          req.Academy,
		BirthYear:        req.BirthYear,
		StartedPlayingOn: started,
		TrainingGroup:    req.TrainingGroup,
		IsReferee:        req.IsReferee,
		BBOUsername:      req.BBOUsername,
		FederationID:     req.FederationID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "onboarding completed", u)
}

package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/server/respond"
)

type createGroupRequest struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

type joinGroupRequest struct {
	Code string `json:"code"`
}

type promoteRequest struct {
	UserID string `json:"userId"`
}

type postMessageRequest struct {
	Body string `json:"body"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.Groups.ListForUser(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	g, err := s.deps.Groups.Create(r.Context(), userID(r), req.Name, req.ImageURL)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "group created", g)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	var req joinGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	g, err := s.deps.Groups.JoinByCode(r.Context(), userID(r), req.Code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "joined group", g)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Groups.Get(r.Context(), r.PathValue("id"), userID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", d)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Groups.Leave(r.Context(), r.PathValue("id"), userID(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "left group", nil)
}

func (s *Server) handlePromoteAdmin(w http.ResponseWriter, r *http.Request) {
	var req promoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.deps.Groups.PromoteAdmin(r.Context(), r.PathValue("id"), userID(r), req.UserID); err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "admin added", nil)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var limit int
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: limit must be an integer", common.ErrorValidation))
			return
		}
		limit = n
	}

	page, err := s.deps.Messages.List(r.Context(), r.PathValue("id"), userID(r), q.Get("before"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", page)
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	m, err := s.deps.Messages.Post(r.Context(), r.PathValue("id"), userID(r), req.Body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "message posted", m)
}

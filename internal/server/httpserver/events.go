package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/server/respond"
	"github.com/bridgeclub/clubhouse/internal/server/services"
)

// defaultEventWindow is the range listed when the client sends no "to".
const defaultEventWindow = 30 * 24 * time.Hour

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from := time.Now().UTC()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: from must be RFC 3339", common.ErrorValidation))
			return
		}
		from = t
	}
	to := from.Add(defaultEventWindow)
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.fail(w, r, fmt.Errorf("%w: to must be RFC 3339", common.ErrorValidation))
			return
		}
		to = t
	}

	events, err := s.deps.Events.ListRange(r.Context(), userID(r), from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", events)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in services.EventInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}

	e, err := s.deps.Events.Create(r.Context(), userID(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "event created", e)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Events.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "event deleted", nil)
}

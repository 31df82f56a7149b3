package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/bridgeclub/clubhouse/internal/common"
	"github.com/bridgeclub/clubhouse/internal/server/access"
	"github.com/bridgeclub/clubhouse/internal/server/respond"
)

const maxJSONBody = 1 << 20

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrInvalidInviteCode),
		errors.Is(err, common.ErrInvalidObjectKey):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrLastAdmin):
		return http.StatusConflict
	case errors.Is(err, common.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an envelope. Internal errors are logged and replaced by
// a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respond.Error(w, status, "internal server error")
		return
	}
	respond.Error(w, status, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload", common.ErrorValidation)
	}
	return nil
}

// userID returns the id the guard stored for this request. API routes never
// reach a handler without one.
func userID(r *http.Request) string {
	id, _ := access.UserIDFromContext(r.Context())
	return id
}

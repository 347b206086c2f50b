package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

const internalErrorMessage = "Internal server error"

type messageResponse struct {
	Message string `json:"message"`
}

// statusOf maps an error kind to its response status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrConflict),
		errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// unauthorizedMessage names the reason a request was turned away without
// revealing anything about stored accounts.
func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingAuthHeader):
		return "No token provided"
	case errors.Is(err, auth.ErrInvalidAuthHeaderFormat):
		return "Authorization header must be Bearer {token}"
	case errors.Is(err, common.ErrTokenExpired):
		return "Token expired"
	default:
		return common.MessageOf(err, "Invalid token")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)

	var msg string
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error(r.Context(), "request failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		)
		msg = internalErrorMessage
	case http.StatusUnauthorized:
		msg = unauthorizedMessage(err)
	default:
		msg = common.MessageOf(err, internalErrorMessage)
	}

	writeJSON(w, status, messageResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package server

import (
	"net/http"

	"github.com/me/petms/internal/ui"
	"github.com/me/petms/pkg/model"
)

// handleListUsers returns all login accounts with their lockout state.
// Admin only.
// GET /api/v1/users
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	sess := ui.SessionFromContext(r.Context())
	if sess == nil || !sess.IsAdmin() {
		respondError(w, reqID, http.StatusForbidden,
			&model.APIError{Code: model.ErrUnauthorized, Message: "admin access required"})
		return
	}

	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	respondOK(w, reqID, users)
}

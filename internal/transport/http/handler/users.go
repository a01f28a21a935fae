package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/todo-api-nosql/internal/application/user"
)

// UserHandler serves the admin-only user endpoints.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Delete removes a user together with all of their todos.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, Envelope{Message: "User deleted"})
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/todo-api-nosql/internal/application/todo"
	"github.com/todo-api-nosql/internal/domain"
	"github.com/todo-api-nosql/internal/transport/http/middleware"
)

type TodoHandler struct {
	svc todo.Service
}

func NewTodoHandler(svc todo.Service) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// List handles GET /todos?userId=.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	todos, err := h.svc.List(r.Context(), r.URL.Query().Get("userId"), caller)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, Envelope{Data: todos})
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	var req domain.CreateTodoRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Create(r.Context(), req, caller)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, Envelope{Message: "Todo created", Data: t})
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	var req domain.UpdateTodoRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req, caller)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, Envelope{Message: "Todo updated", Data: t})
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"), caller); err != nil {
		httpError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, Envelope{Message: "Todo deleted"})
}

func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
	}
	return p, ok
}

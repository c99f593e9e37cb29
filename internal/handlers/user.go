package handlers

import (
	"context"
	"net/http"

	"github.com/crucial707/messagely/internal/models"
	"github.com/go-chi/chi/v5"
)

// UserStore reads user profiles.
type UserStore interface {
	Get(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.UserSummary, error)
}

// MessageLister lists a user's received and sent messages.
type MessageLister interface {
	ListTo(ctx context.Context, username string) ([]models.InboxMessage, error)
	ListFrom(ctx context.Context, username string) ([]models.OutboxMessage, error)
}

// ==========================
// UserHandler
// ==========================

// UserHandler serves /users. Routes under /users/{username} are mounted
// behind middleware.EnsureCorrectUser, so the handlers only read.
type UserHandler struct {
	Users    UserStore
	Messages MessageLister
}

// ==========================
// List Users
// ==========================
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// ==========================
// Get User
// ==========================
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// ==========================
// Messages To User
// ==========================
func (h *UserHandler) MessagesTo(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Messages.ListTo(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// ==========================
// Messages From User
// ==========================
func (h *UserHandler) MessagesFrom(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Messages.ListFrom(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

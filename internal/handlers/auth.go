package handlers

import (
	"context"
	"net/http"

	"github.com/crucial707/messagely/internal/apperr"
	"github.com/crucial707/messagely/internal/metrics"
	"github.com/crucial707/messagely/internal/models"
)

// CredentialStore checks and creates user credentials.
type CredentialStore interface {
	Authenticate(ctx context.Context, username, password string) (bool, error)
	Register(ctx context.Context, reg models.Registration) (*models.User, error)
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// LoginRecorder records a successful login without blocking the caller.
type LoginRecorder interface {
	Record(username string)
}

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users  CredentialStore
	Tokens TokenIssuer
	Logins LoginRecorder
}

type tokenResponse struct {
	Token string `json:"token"`
}

// ==========================
// Login
// ==========================

// Login verifies {username, password} and returns {token}. The last-login
// update is handed to the recorder and not awaited.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if !decodeJSON(w, r, &input) {
		return
	}

	ok, err := h.Users.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		metrics.IncLogin("error")
		WriteError(w, r, err)
		return
	}
	if !ok {
		metrics.IncLogin("invalid")
		WriteError(w, r, apperr.ErrInvalidCredentials)
		return
	}

	token, err := h.Tokens.Issue(input.Username)
	if err != nil {
		metrics.IncLogin("error")
		WriteError(w, r, err)
		return
	}

	if h.Logins != nil {
		h.Logins.Record(input.Username)
	}
	metrics.IncLogin("success")

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// ==========================
// Register
// ==========================

// Register creates the user and returns {token} for it. Validation and
// duplicate detection belong to the store.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input models.Registration

	if !decodeJSON(w, r, &input) {
		return
	}

	user, err := h.Users.Register(r.Context(), input)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	token, err := h.Tokens.Issue(user.Username)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

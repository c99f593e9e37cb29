package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/crucial707/messagely/internal/apperr"
	"github.com/crucial707/messagely/internal/metrics"
	"github.com/crucial707/messagely/internal/middleware"
	"github.com/crucial707/messagely/internal/models"
	"github.com/go-chi/chi/v5"
)

// MessageStore reads and writes messages. Get and MarkRead return a
// KindNotFound error for unknown ids.
type MessageStore interface {
	Get(ctx context.Context, id int) (*models.MessageDetail, error)
	Create(ctx context.Context, in models.NewMessage) (*models.Message, error)
	MarkRead(ctx context.Context, id int) (*models.ReadReceipt, error)
}

// ==========================
// MessageHandler
// ==========================
type MessageHandler struct {
	Messages MessageStore
}

// ==========================
// Get Message
// ==========================

// GetMessage returns {message: {...}} to the sender or the recipient. The
// message is fetched before ownership is checked, so an unknown id is a 404
// for everyone.
func (h *MessageHandler) GetMessage(w http.ResponseWriter, r *http.Request) {
	username, id, ok := h.identityAndID(w, r)
	if !ok {
		return
	}

	msg, err := h.Messages.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if !msg.CanView(username) {
		WriteError(w, r, apperr.ErrUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": msg})
}

// ==========================
// Create Message
// ==========================

// CreateMessage stores {from_username, to_username, body}. from_username
// must be the caller.
func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsername(r.Context())
	if !ok {
		WriteError(w, r, apperr.ErrUnauthorized)
		return
	}

	var input models.NewMessage
	if !decodeJSON(w, r, &input) {
		return
	}

	if input.FromUsername != username {
		WriteError(w, r, apperr.ErrUnauthorized)
		return
	}

	msg, err := h.Messages.Create(r.Context(), input)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	metrics.IncMessagesSent()

	writeJSON(w, http.StatusOK, msg)
}

// ==========================
// Mark Read
// ==========================

// MarkRead lets the recipient mark a message read and returns
// {message: {id, read_at}}.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	username, id, ok := h.identityAndID(w, r)
	if !ok {
		return
	}

	msg, err := h.Messages.Get(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if !msg.CanMarkRead(username) {
		WriteError(w, r, apperr.ErrUnauthorized)
		return
	}

	receipt, err := h.Messages.MarkRead(r.Context(), id)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	metrics.IncMessagesRead()

	writeJSON(w, http.StatusOK, map[string]interface{}{"message": receipt})
}

func (h *MessageHandler) identityAndID(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	username, ok := middleware.GetUsername(r.Context())
	if !ok {
		WriteError(w, r, apperr.ErrUnauthorized)
		return "", 0, false
	}

	// ids are int4 serials; larger values can never match a row.
	id64, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		JSONError(w, "invalid message id", http.StatusBadRequest)
		return "", 0, false
	}
	return username, int(id64), true
}

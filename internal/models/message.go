package models

import "time"

// Message is a stored message as returned on creation.
type Message struct {
	ID           int       `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

// NewMessage is the payload accepted by POST /messages.
type NewMessage struct {
	FromUsername string `json:"from_username" validate:"required"`
	ToUsername   string `json:"to_username" validate:"required"`
	Body         string `json:"body" validate:"required"`
}

// MessageDetail is a message with both parties expanded. ReadAt is nil
// until the recipient marks the message as read.
type MessageDetail struct {
	ID       int         `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserSummary `json:"from_user"`
	ToUser   UserSummary `json:"to_user"`
}

// CanView reports whether username is a party to the message.
func (m *MessageDetail) CanView(username string) bool {
	return m.FromUser.Username == username || m.ToUser.Username == username
}

// CanMarkRead reports whether username is the recipient.
func (m *MessageDetail) CanMarkRead(username string) bool {
	return m.ToUser.Username == username
}

// ReadReceipt is the result of marking a message read.
type ReadReceipt struct {
	ID     int        `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

// InboxMessage is a received message listed under /users/{username}/to.
type InboxMessage struct {
	ID       int         `json:"id"`
	FromUser UserSummary `json:"from_user"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
}

// OutboxMessage is a sent message listed under /users/{username}/from.
type OutboxMessage struct {
	ID     int         `json:"id"`
	ToUser UserSummary `json:"to_user"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
}

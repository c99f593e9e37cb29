package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/messagely/internal/apperr"
	"github.com/crucial707/messagely/internal/models"
)

// ==========================
// MessageRepo
// ==========================
type MessageRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{DB: db}
}

// ==========================
// Create Message
// ==========================
func (r *MessageRepo) Create(ctx context.Context, in models.NewMessage) (*models.Message, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO messages (from_username, to_username, body, sent_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, from_username, to_username, body, sent_at
	`

	msg := &models.Message{}

	err := r.DB.QueryRowContext(ctx, query, in.FromUsername, in.ToUsername, in.Body).
		Scan(&msg.ID, &msg.FromUsername, &msg.ToUsername, &msg.Body, &msg.SentAt)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return nil, apperr.Wrap(apperr.KindNotFound, "recipient not found", err)
		}
		return nil, err
	}

	return msg, nil
}

// ==========================
// Get Message
// ==========================

// Get returns the message with both parties expanded, or a KindNotFound
// error when id does not exist.
func (r *MessageRepo) Get(ctx context.Context, id int) (*models.MessageDetail, error) {
	query := `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       f.username, f.first_name, f.last_name, f.phone,
		       t.username, t.first_name, t.last_name, t.phone
		FROM messages AS m
		JOIN users AS f ON f.username = m.from_username
		JOIN users AS t ON t.username = m.to_username
		WHERE m.id = $1
	`

	m := &models.MessageDetail{}
	var readAt sql.NullTime

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.Body, &m.SentAt, &readAt,
		&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone,
		&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(fmt.Sprintf("no such message: %d", id))
		}
		return nil, err
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}

	return m, nil
}

// ==========================
// Mark Read
// ==========================

// MarkRead stamps read_at with the current time. Marking an already read
// message moves the timestamp forward.
func (r *MessageRepo) MarkRead(ctx context.Context, id int) (*models.ReadReceipt, error) {
	query := `
		UPDATE messages
		SET read_at = now()
		WHERE id = $1
		RETURNING id, read_at
	`

	rec := &models.ReadReceipt{}
	var readAt sql.NullTime

	err := r.DB.QueryRowContext(ctx, query, id).Scan(&rec.ID, &readAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound(fmt.Sprintf("no such message: %d", id))
		}
		return nil, err
	}
	if readAt.Valid {
		rec.ReadAt = &readAt.Time
	}

	return rec, nil
}

// ==========================
// Messages To User
// ==========================
func (r *MessageRepo) ListTo(ctx context.Context, username string) ([]models.InboxMessage, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       f.username, f.first_name, f.last_name, f.phone
		FROM messages AS m
		JOIN users AS f ON f.username = m.from_username
		WHERE m.to_username = $1
		ORDER BY m.id
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.InboxMessage{}
	for rows.Next() {
		var m models.InboxMessage
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone); err != nil {
			return nil, err
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ==========================
// Messages From User
// ==========================
func (r *MessageRepo) ListFrom(ctx context.Context, username string) ([]models.OutboxMessage, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT m.id, m.body, m.sent_at, m.read_at,
		       t.username, t.first_name, t.last_name, t.phone
		FROM messages AS m
		JOIN users AS t ON t.username = m.to_username
		WHERE m.from_username = $1
		ORDER BY m.id
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.OutboxMessage{}
	for rows.Next() {
		var m models.OutboxMessage
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone); err != nil {
			return nil, err
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/messagely/internal/apperr"
	"github.com/crucial707/messagely/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB         *sql.DB
	BcryptCost int
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB, bcryptCost int) *UserRepo {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserRepo{DB: db, BcryptCost: bcryptCost}
}

// ==========================
// Register
// ==========================

// Register validates reg, hashes the password and stores the user. The new
// user counts as logged in, so last_login_at is set as well as join_at.
func (r *UserRepo) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	if err := validateStruct(reg); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), r.BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.Validation(map[string]string{"password": "must be at most 72 bytes"})
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING username, first_name, last_name, phone, join_at, last_login_at
	`

	user := &models.User{}
	var lastLogin sql.NullTime

	err = r.DB.QueryRowContext(ctx, query,
		reg.Username, string(hash), reg.FirstName, reg.LastName, reg.Phone).
		Scan(&user.Username, &user.FirstName, &user.LastName, &user.Phone, &user.JoinAt, &lastLogin)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return nil, apperr.Wrap(apperr.KindConflict, "username already taken", err)
		}
		return nil, err
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}

	return user, nil
}

// ==========================
// Authenticate
// ==========================

// Authenticate reports whether password matches the stored hash. An unknown
// username is a failed authentication, not an error.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (bool, error) {
	var hash string
	err := r.DB.QueryRowContext(ctx,
		`SELECT password FROM users WHERE username = $1`, username).
		Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ==========================
// Update Login Timestamp
// ==========================
func (r *UserRepo) UpdateLoginTimestamp(ctx context.Context, username string) error {
	result, err := r.DB.ExecContext(ctx,
		`UPDATE users SET last_login_at = now() WHERE username = $1`, username)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return apperr.NotFound("user not found")
	}

	return nil
}

// ==========================
// Get By Username
// ==========================
func (r *UserRepo) Get(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT username, first_name, last_name, phone, join_at, last_login_at
		FROM users
		WHERE username = $1
	`

	user := &models.User{}
	var lastLogin sql.NullTime

	err := r.DB.QueryRowContext(ctx, query, username).
		Scan(&user.Username, &user.FirstName, &user.LastName, &user.Phone, &user.JoinAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}

	return user, nil
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) List(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT username, first_name, last_name, phone FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

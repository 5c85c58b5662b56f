package models

import (
	"strings"
	"time"

	id "basket/pkg/domain"
	dErrors "basket/pkg/domain-errors"
)

// User is the authenticated principal. Admin grants the administrative
// capability, which bypasses list membership checks everywhere.
type User struct {
	ID           id.UserID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser validates and constructs a user record. The password hash is
// produced by the caller (internal/auth/secrets) so models stay free of
// crypto dependencies.
func NewUser(userID id.UserID, username, email, passwordHash string, admin bool, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "username must not be empty")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password hash must not be empty")
	}
	return &User{
		ID:           userID,
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		Admin:        admin,
		CreatedAt:    now,
	}, nil
}

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"basket/internal/auth/models"
	id "basket/pkg/domain"
	"basket/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// Postgres persists users in PostgreSQL. Schema lives in migrations/0001_init.sql.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(user.ID),
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Admin,
		user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	return s.findOne(ctx, `SELECT id, username, email, password_hash, is_admin, created_at FROM users WHERE id = $1`, uuid.UUID(userID))
}

func (s *Postgres) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, `SELECT id, username, email, password_hash, is_admin, created_at FROM users WHERE username = $1`, username)
}

func (s *Postgres) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user models.User
		uid  uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&uid, &user.Username, &user.Email, &user.PasswordHash, &user.Admin, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	user.ID = id.UserID(uid)
	return &user, nil
}

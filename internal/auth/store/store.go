package store

import (
	"context"
	"time"

	"basket/internal/auth/models"
	id "basket/pkg/domain"
)

// Stores are interface-driven so services stay testable and persistence can be
// swapped between in-memory and external implementations without rewiring
// business code.

// UserStore owns user records.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenRevocationList tracks revoked token JTIs until their natural expiry.
type TokenRevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

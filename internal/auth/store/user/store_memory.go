package user

import (
	"context"
	"sync"

	"basket/internal/auth/models"
	id "basket/pkg/domain"
	"basket/pkg/platform/sentinel"
)

// InMemory keeps user records in process. Favoring clarity over performance;
// the username index mirrors the unique constraint the postgres store gets
// from its schema.
type InMemory struct {
	mu         sync.RWMutex
	users      map[id.UserID]*models.User
	byUsername map[string]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:      make(map[id.UserID]*models.User),
		byUsername: make(map[string]id.UserID),
	}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byUsername[user.Username]; taken {
		return sentinel.ErrAlreadyUsed
	}
	copied := *user
	s.users[user.ID] = &copied
	s.byUsername[user.Username] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byUsername[username]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.users[userID]
	return &copied, nil
}

package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"basket/internal/auth/models"
	id "basket/pkg/domain"
	"basket/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *InMemorySuite) newUser(username string) *models.User {
	u, err := models.NewUser(id.NewUserID(), username, username+"@example.com", "hash", false, time.Now().UTC())
	s.Require().NoError(err)
	return u
}

func (s *InMemorySuite) TestCreateAndFind() {
	u := s.newUser("alice")
	s.Require().NoError(s.store.Create(s.ctx, u))

	byID, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)

	byName, err := s.store.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(u.ID, byName.ID)
}

func (s *InMemorySuite) TestDuplicateUsername() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUser("alice")))
	err := s.store.Create(s.ctx, s.newUser("alice"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *InMemorySuite) TestFindUnknown() {
	_, err := s.store.FindByID(s.ctx, id.NewUserID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByUsername(s.ctx, "nobody")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestFindReturnsCopy() {
	u := s.newUser("alice")
	s.Require().NoError(s.store.Create(s.ctx, u))

	found, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	found.Username = "tampered"

	again, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("alice", again.Username)
}

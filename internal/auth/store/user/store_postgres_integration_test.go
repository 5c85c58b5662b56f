//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"basket/internal/auth/models"
	"basket/internal/auth/store/user"
	id "basket/pkg/domain"
	"basket/pkg/platform/sentinel"
	"basket/pkg/testutil/containers"
)

type PostgresUserSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	store    *user.Postgres
}

func TestPostgresUserSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserSuite))
}

func (s *PostgresUserSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresUserSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "users"))
}

func (s *PostgresUserSuite) newUser(username string) *models.User {
	u, err := models.NewUser(id.NewUserID(), username, username+"@example.com", "hash", false, time.Now().UTC())
	s.Require().NoError(err)
	return u
}

func (s *PostgresUserSuite) TestCreateAndFind() {
	u := s.newUser("alice")
	s.Require().NoError(s.store.Create(s.ctx, u))

	byID, err := s.store.FindByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)

	byName, err := s.store.FindByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(u.ID, byName.ID)
}

func (s *PostgresUserSuite) TestDuplicateUsername() {
	s.Require().NoError(s.store.Create(s.ctx, s.newUser("alice")))
	err := s.store.Create(s.ctx, s.newUser("alice"))
	s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresUserSuite) TestFindUnknown() {
	_, err := s.store.FindByID(s.ctx, id.NewUserID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByUsername(s.ctx, "nobody")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

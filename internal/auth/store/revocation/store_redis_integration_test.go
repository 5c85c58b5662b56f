//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"basket/internal/auth/store/revocation"
	"basket/pkg/testutil/containers"
)

type RedisTRLSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	trl   *revocation.RedisTRL
}

func TestRedisTRLSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTRLSuite))
}

func (s *RedisTRLSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.trl = revocation.NewRedisTRL(s.redis.Client)
}

func (s *RedisTRLSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisTRLSuite) TestRevokeAndCheck() {
	jti := uuid.NewString()

	revoked, err := s.trl.IsRevoked(s.ctx, jti)
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.trl.Revoke(s.ctx, jti, time.Minute))

	revoked, err = s.trl.IsRevoked(s.ctx, jti)
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *RedisTRLSuite) TestRevocationExpires() {
	jti := uuid.NewString()
	s.Require().NoError(s.trl.Revoke(s.ctx, jti, 100*time.Millisecond))

	s.Eventually(func() bool {
		revoked, err := s.trl.IsRevoked(s.ctx, jti)
		return err == nil && !revoked
	}, 2*time.Second, 50*time.Millisecond, "revocation should lapse with its TTL")
}

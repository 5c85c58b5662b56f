package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"basket/internal/auth/models"
	"basket/internal/auth/secrets"
	"basket/internal/auth/store"
	"basket/internal/jwttoken"
	id "basket/pkg/domain"
	dErrors "basket/pkg/domain-errors"
	"basket/pkg/platform/sentinel"
	"basket/pkg/requestcontext"
)

// Service issues and revokes bearer tokens and resolves user identities for
// other modules. Membership validation in the shopping module goes through
// ResolveUsers so an unresolvable member id is caught before any mutation.
type Service struct {
	users       store.UserStore
	revocations store.TokenRevocationList
	tokens      *jwttoken.Service
	tokenTTL    time.Duration
	logger      *slog.Logger
}

func New(users store.UserStore, revocations store.TokenRevocationList, tokens *jwttoken.Service, tokenTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		users:       users,
		revocations: revocations,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// ObtainToken verifies credentials and mints an access token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) ObtainToken(ctx context.Context, username, password string) (string, *models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, dErrors.New(dErrors.CodeInvalidInput, "username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		return "", nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Admin, s.tokenTTL)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return token, user, nil
}

// RevokeToken puts the given JTI on the revocation list. The TTL matches the
// token lifetime so the entry expires together with the token.
func (s *Service) RevokeToken(ctx context.Context, jti string) error {
	if jti == "" {
		return dErrors.New(dErrors.CodeBadRequest, "no token bound to this request")
	}
	if err := s.revocations.Revoke(ctx, jti, s.tokenTTL); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	return nil
}

// CreateUser provisions a user record. Used by seeding and tests.
func (s *Service) CreateUser(ctx context.Context, username, email, password string, admin bool) (*models.User, error) {
	hash, err := secrets.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := models.NewUser(id.NewUserID(), username, email, hash, admin, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "username is taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "user created", "username", user.Username, "admin", user.Admin)
	}
	return user, nil
}

// ResolveUsers verifies that every given id maps to a known user.
// Returns an invalid-input error naming the first unresolvable id.
func (s *Service) ResolveUsers(ctx context.Context, userIDs []id.UserID) error {
	for _, userID := range userIDs {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeInvalidInput, "unknown user: "+userID.String())
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve user")
		}
	}
	return nil
}

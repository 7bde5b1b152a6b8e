package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/users"
)

// UserService handles the login flow on top of TokenService:
//   - Login: verify credentials and issue a pair
//   - Refresh, Logout, LogoutAll: delegate to the token lifecycle
//   - Register: create users (developer seeding)
type UserService struct {
	users    users.Repository
	tokens   *TokenService
	verifier auth.CredentialVerifier
	logger   logging.Logger
}

func NewUserService(u users.Repository, tokens *TokenService, verifier auth.CredentialVerifier, logger logging.Logger) *UserService {
	return &UserService{
		users:    u,
		tokens:   tokens,
		verifier: verifier,
		logger:   logger.With("module", "users"),
	}
}

// Login returns ErrUserNotFound for an unknown email and
// ErrInvalidCredentials when the password does not match.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, infraError(ctx, s.logger, "get user by email", err)
	}

	if !s.verifier.Verify(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.tokens.Issue(ctx, user.ID)
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	return s.tokens.Refresh(ctx, refreshToken)
}

func (s *UserService) Logout(ctx context.Context, userID, accessToken string) error {
	return s.tokens.Logout(ctx, userID, accessToken)
}

func (s *UserService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	return s.tokens.LogoutAll(ctx, userID)
}

// Register hashes password with bcrypt and stores the user.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := s.users.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, infraError(ctx, s.logger, "create user", err)
	}
	return u, nil
}

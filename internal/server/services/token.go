// Package services contains server-side business logic: the token
// lifecycle over the whitelist, the login flow, and the asset gateway.
package services

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/config"
	"github.com/dmitrijs2005/gophgate/internal/server/metrics"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/whitelist"
)

// TokenService issues, rotates, validates and revokes token pairs. Every
// valid token has a whitelist entry; removing the entry revokes the token.
type TokenService struct {
	whitelist  whitelist.Store
	users      users.Repository
	signer     auth.TokenSigner
	accessTTL  time.Duration
	refreshTTL time.Duration
	metrics    *metrics.Metrics
	logger     logging.Logger
	now        func() time.Time
}

func NewTokenService(wl whitelist.Store, u users.Repository, signer auth.TokenSigner, cfg *config.Config,
	m *metrics.Metrics, logger logging.Logger) *TokenService {
	return &TokenService{
		whitelist:  wl,
		users:      u,
		signer:     signer,
		accessTTL:  cfg.AccessTokenValidityDuration,
		refreshTTL: cfg.RefreshTokenValidityDuration,
		metrics:    m,
		logger:     logger.With("module", "tokens"),
		now:        time.Now,
	}
}

// Issue creates a refresh entry and an access entry linked to it and
// returns the signed pair.
func (s *TokenService) Issue(ctx context.Context, userID string) (*models.TokenPair, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var pair *models.TokenPair
	err = s.whitelist.Atomic(ctx, func(ctx context.Context, repo whitelist.Repository) error {
		var err error
		pair, err = s.issue(ctx, repo, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh rotates a refresh token. The old refresh entry is removed with a
// conditional delete, so of two concurrent calls with the same token only
// one gets a new pair; the other fails with ErrTokenNotFound.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (pair *models.TokenPair, err error) {
	ctx, span := tracer().Start(ctx, "TokenService.Refresh")
	defer func() { endSpan(span, err) }()

	entry, err := s.whitelist.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.TokenFailure("not_found")
			return nil, common.ErrTokenNotFound
		}
		return nil, infraError(ctx, s.logger, "find refresh token", err)
	}
	span.SetAttributes(attribute.String("whitelist.entry_id", entry.ID))

	if entry.Expired(s.now()) {
		s.metrics.TokenFailure("expired")
		return nil, common.ErrTokenExpired
	}

	user, err := s.getUser(ctx, entry.UserID)
	if err != nil {
		return nil, err
	}

	err = s.whitelist.Atomic(ctx, func(ctx context.Context, repo whitelist.Repository) error {
		existed, err := repo.DeleteByID(ctx, entry.ID)
		if err != nil {
			return infraError(ctx, s.logger, "delete refresh entry", err, "entry_id", entry.ID)
		}
		if !existed {
			return common.ErrTokenNotFound
		}
		if _, err := repo.DeleteByRefreshTokenID(ctx, entry.ID); err != nil {
			return infraError(ctx, s.logger, "delete paired access entries", err, "entry_id", entry.ID)
		}

		pair, err = s.issue(ctx, repo, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrTokenNotFound) {
			s.metrics.TokenFailure("not_found")
		}
		return nil, err
	}

	s.metrics.TokenRotated()
	return pair, nil
}

// Validate checks an access token and returns the user it belongs to.
func (s *TokenService) Validate(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.signer.Verify(accessToken)
	if err != nil {
		s.metrics.TokenFailure(failureReason(err))
		return "", err
	}
	if claims.Type != auth.TokenTypeAccess {
		s.metrics.TokenFailure("malformed")
		return "", common.ErrTokenMalformed
	}

	entry, err := s.whitelist.FindByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.TokenFailure("not_found")
			return "", common.ErrTokenNotFound
		}
		return "", infraError(ctx, s.logger, "find access token", err)
	}

	if entry.Expired(s.now()) {
		s.metrics.TokenFailure("expired")
		return "", common.ErrTokenExpired
	}
	if entry.UserID != claims.UserID {
		s.metrics.TokenFailure("foreign")
		s.logger.Warn(ctx, "access token owner mismatch", "entry_id", entry.ID, "claimed_user", claims.UserID)
		return "", common.ErrorUnauthorized
	}

	return claims.UserID, nil
}

// Logout removes the user's access entry and its paired refresh entry.
// An unknown token is not an error.
func (s *TokenService) Logout(ctx context.Context, userID, accessToken string) error {
	entry, err := s.whitelist.FindByUserAndAccessToken(ctx, userID, accessToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return infraError(ctx, s.logger, "find access token", err, "user_id", userID)
	}

	return s.whitelist.Atomic(ctx, func(ctx context.Context, repo whitelist.Repository) error {
		if _, err := repo.DeleteByID(ctx, entry.ID); err != nil {
			return infraError(ctx, s.logger, "delete access entry", err, "entry_id", entry.ID)
		}
		if entry.RefreshTokenID == "" {
			return nil
		}
		if _, err := repo.DeleteByID(ctx, entry.RefreshTokenID); err != nil {
			return infraError(ctx, s.logger, "delete refresh entry", err, "entry_id", entry.RefreshTokenID)
		}
		return nil
	})
}

// LogoutAll removes every whitelist entry of the user.
func (s *TokenService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.whitelist.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, infraError(ctx, s.logger, "delete user entries", err, "user_id", userID)
	}
	return n, nil
}

// Sweep removes every entry with expired_at < now and returns the count.
func (s *TokenService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.whitelist.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, infraError(ctx, s.logger, "sweep whitelist", err)
	}
	s.metrics.WhitelistSwept(n)
	return n, nil
}

func (s *TokenService) getUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, infraError(ctx, s.logger, "get user", err, "user_id", userID)
	}
	return user, nil
}

func (s *TokenService) issue(ctx context.Context, repo whitelist.Repository, user *models.User) (*models.TokenPair, error) {
	refreshToken, err := s.signer.Sign(auth.Claims{UserID: user.ID, Type: auth.TokenTypeRefresh}, s.refreshTTL)
	if err != nil {
		return nil, infraError(ctx, s.logger, "sign refresh token", err)
	}
	accessToken, err := s.signer.Sign(auth.Claims{UserID: user.ID, Type: auth.TokenTypeAccess}, s.accessTTL)
	if err != nil {
		return nil, infraError(ctx, s.logger, "sign access token", err)
	}

	now := s.now()

	refresh := &models.WhitelistEntry{
		UserID:       user.ID,
		UserEmail:    user.Email,
		RefreshToken: refreshToken,
		ExpiredAt:    now.Add(s.refreshTTL),
	}
	if err := repo.Create(ctx, refresh); err != nil {
		return nil, infraError(ctx, s.logger, "create refresh entry", err, "user_id", user.ID)
	}

	access := &models.WhitelistEntry{
		UserID:         user.ID,
		UserEmail:      user.Email,
		AccessToken:    accessToken,
		RefreshTokenID: refresh.ID,
		ExpiredAt:      now.Add(s.accessTTL),
	}
	if err := repo.Create(ctx, access); err != nil {
		return nil, infraError(ctx, s.logger, "create access entry", err, "user_id", user.ID)
	}

	s.metrics.TokenIssued()
	return &models.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrTokenNotFound):
		return "not_found"
	default:
		return "malformed"
	}
}

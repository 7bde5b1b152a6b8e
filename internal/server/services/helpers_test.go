package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/config"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/whitelist"
)

type tokenFixture struct {
	svc   *TokenService
	wl    *whitelist.MemoryStore
	users *users.MemoryRepository
	user  *models.User
}

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()

	cfg := &config.Config{
		AccessTokenValidityDuration:  15 * time.Minute,
		RefreshTokenValidityDuration: 7 * 24 * time.Hour,
	}
	wl := whitelist.NewMemoryStore()
	ur := users.NewMemoryRepository()

	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)
	u, err := ur.Create(context.Background(), &models.User{Email: "alice@example.com", PasswordHash: hash})
	require.NoError(t, err)

	svc := NewTokenService(wl, ur, auth.NewJWTSigner([]byte("test-secret")), cfg, nil, logging.Nop())
	return &tokenFixture{svc: svc, wl: wl, users: ur, user: u}
}

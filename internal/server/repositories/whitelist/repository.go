// Package whitelist stores the allow-list of issued tokens. A token that
// has no entry here is treated as revoked.
package whitelist

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// Repository is the whitelist contract. Lookups return common.ErrorNotFound
// for a missing entry.
type Repository interface {
	// Create inserts e with its token value and expiry in one statement.
	// An empty ID is filled in.
	Create(ctx context.Context, e *models.WhitelistEntry) error

	FindByAccessToken(ctx context.Context, token string) (*models.WhitelistEntry, error)
	FindByRefreshToken(ctx context.Context, token string) (*models.WhitelistEntry, error)
	FindByUserAndAccessToken(ctx context.Context, userID, token string) (*models.WhitelistEntry, error)

	// DeleteByID reports whether a row was actually removed. Refresh
	// rotation relies on it: only the caller that sees true may proceed.
	DeleteByID(ctx context.Context, id string) (bool, error)

	// DeleteByRefreshTokenID removes the access entries issued with refreshID.
	DeleteByRefreshTokenID(ctx context.Context, refreshID string) (int64, error)

	// DeleteExpired removes every entry with expired_at < now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// Store is a Repository that can also run a group of operations atomically.
type Store interface {
	Repository
	Atomic(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

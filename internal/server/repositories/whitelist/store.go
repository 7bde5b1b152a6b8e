package whitelist

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// SQLStore binds a repository constructor to a *sql.DB. Atomic runs fn in a
// transaction with a repository bound to the tx.
type SQLStore struct {
	db      *sql.DB
	newRepo func(dbx.DBTX) Repository
}

func NewSQLStore(db *sql.DB, newRepo func(dbx.DBTX) Repository) *SQLStore {
	return &SQLStore{db: db, newRepo: newRepo}
}

func (s *SQLStore) Atomic(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, s.newRepo(tx))
	})
}

func (s *SQLStore) Create(ctx context.Context, e *models.WhitelistEntry) error {
	return s.newRepo(s.db).Create(ctx, e)
}

func (s *SQLStore) FindByAccessToken(ctx context.Context, token string) (*models.WhitelistEntry, error) {
	return s.newRepo(s.db).FindByAccessToken(ctx, token)
}

func (s *SQLStore) FindByRefreshToken(ctx context.Context, token string) (*models.WhitelistEntry, error) {
	return s.newRepo(s.db).FindByRefreshToken(ctx, token)
}

func (s *SQLStore) FindByUserAndAccessToken(ctx context.Context, userID, token string) (*models.WhitelistEntry, error) {
	return s.newRepo(s.db).FindByUserAndAccessToken(ctx, userID, token)
}

func (s *SQLStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	return s.newRepo(s.db).DeleteByID(ctx, id)
}

func (s *SQLStore) DeleteByRefreshTokenID(ctx context.Context, refreshID string) (int64, error) {
	return s.newRepo(s.db).DeleteByRefreshTokenID(ctx, refreshID)
}

func (s *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.newRepo(s.db).DeleteExpired(ctx, now)
}

func (s *SQLStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return s.newRepo(s.db).DeleteByUser(ctx, userID)
}

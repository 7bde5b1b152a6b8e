package whitelist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// SQLiteRepository implements Repository for modernc.org/sqlite.
// Timestamps are stored as unix milliseconds.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Create(ctx context.Context, e *models.WhitelistEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	createdAt := r.now().UTC().Truncate(time.Millisecond)

	query := `
		INSERT INTO token_whitelist (id, user_id, user_email, access_token, refresh_token, refresh_token_id, expired_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.UserEmail,
		nullString(e.AccessToken), nullString(e.RefreshToken), nullString(e.RefreshTokenID),
		toMillis(e.ExpiredAt), toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("create whitelist entry %s: %w", e.ID, err)
	}
	e.CreatedAt = createdAt
	return nil
}

func (r *SQLiteRepository) FindByAccessToken(ctx context.Context, token string) (*models.WhitelistEntry, error) {
	return findEntry(ctx, r.db, unixMillis, `SELECT `+selectColumns+` FROM token_whitelist WHERE access_token = ?`, token)
}

func (r *SQLiteRepository) FindByRefreshToken(ctx context.Context, token string) (*models.WhitelistEntry, error) {
	return findEntry(ctx, r.db, unixMillis, `SELECT `+selectColumns+` FROM token_whitelist WHERE refresh_token = ?`, token)
}

func (r *SQLiteRepository) FindByUserAndAccessToken(ctx context.Context, userID, token string) (*models.WhitelistEntry, error) {
	return findEntry(ctx, r.db, unixMillis, `SELECT `+selectColumns+` FROM token_whitelist WHERE user_id = ? AND access_token = ?`, userID, token)
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.db, "delete whitelist entry "+id, `DELETE FROM token_whitelist WHERE id = ?`, id)
	return n > 0, err
}

func (r *SQLiteRepository) DeleteByRefreshTokenID(ctx context.Context, refreshID string) (int64, error) {
	return execCount(ctx, r.db, "delete access entries of "+refreshID, `DELETE FROM token_whitelist WHERE refresh_token_id = ?`, refreshID)
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return execCount(ctx, r.db, "delete expired entries", `DELETE FROM token_whitelist WHERE expired_at < ?`, toMillis(now))
}

func (r *SQLiteRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return execCount(ctx, r.db, "delete entries of user "+userID, `DELETE FROM token_whitelist WHERE user_id = ?`, userID)
}

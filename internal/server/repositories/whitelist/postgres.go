package whitelist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.WhitelistEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	query := `
		INSERT INTO token_whitelist (id, user_id, user_email, access_token, refresh_token, refresh_token_id, expired_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.ID, e.UserID, e.UserEmail,
		nullString(e.AccessToken), nullString(e.RefreshToken), nullString(e.RefreshTokenID),
		e.ExpiredAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create whitelist entry %s: %w", e.ID, err)
	}
	return nil
}

func (r *PostgresRepository) FindByAccessToken(ctx context.Context, token string) (*models.WhitelistEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM token_whitelist WHERE access_token = $1`
	return findEntry(ctx, r.db, nativeTime, query, token)
}

func (r *PostgresRepository) FindByRefreshToken(ctx context.Context, token string) (*models.WhitelistEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM token_whitelist WHERE refresh_token = $1`
	return findEntry(ctx, r.db, nativeTime, query, token)
}

func (r *PostgresRepository) FindByUserAndAccessToken(ctx context.Context, userID, token string) (*models.WhitelistEntry, error) {
	query := `SELECT ` + selectColumns + ` FROM token_whitelist WHERE user_id = $1 AND access_token = $2`
	return findEntry(ctx, r.db, nativeTime, query, userID, token)
}

// DeleteByID is a conditional delete: under concurrent callers Postgres row
// locking lets exactly one of them observe RowsAffected == 1.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.db, "delete whitelist entry "+id, `DELETE FROM token_whitelist WHERE id = $1`, id)
	return n > 0, err
}

func (r *PostgresRepository) DeleteByRefreshTokenID(ctx context.Context, refreshID string) (int64, error) {
	return execCount(ctx, r.db, "delete access entries of "+refreshID, `DELETE FROM token_whitelist WHERE refresh_token_id = $1`, refreshID)
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return execCount(ctx, r.db, "delete expired entries", `DELETE FROM token_whitelist WHERE expired_at < $1`, now)
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return execCount(ctx, r.db, "delete entries of user "+userID, `DELETE FROM token_whitelist WHERE user_id = $1`, userID)
}

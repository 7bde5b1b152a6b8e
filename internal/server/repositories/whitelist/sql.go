package whitelist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

const selectColumns = `id, user_id, user_email, access_token, refresh_token, refresh_token_id, expired_at, created_at`

// timestampColumn returns the Scan target for a timestamp column and a func
// that stores the scanned value into dst.
type timestampColumn func(dst *time.Time) (target any, done func())

// nativeTime scans drivers that return time.Time (pgx).
func nativeTime(dst *time.Time) (any, func()) {
	return dst, func() {}
}

// unixMillis scans columns stored as unix milliseconds (sqlite).
func unixMillis(dst *time.Time) (any, func()) {
	var ms int64
	return &ms, func() { *dst = fromMillis(ms) }
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// execCount runs a statement and returns the affected row count.
func execCount(ctx context.Context, db dbx.DBTX, op, query string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// findEntry scans a single row of selectColumns. No row is common.ErrorNotFound.
func findEntry(ctx context.Context, db dbx.DBTX, ts timestampColumn, query string, args ...any) (*models.WhitelistEntry, error) {
	var (
		e                                    models.WhitelistEntry
		accessToken, refreshToken, refreshID sql.NullString
	)
	expiredAt, setExpiredAt := ts(&e.ExpiredAt)
	createdAt, setCreatedAt := ts(&e.CreatedAt)

	err := db.QueryRowContext(ctx, query, args...).Scan(
		&e.ID, &e.UserID, &e.UserEmail, &accessToken, &refreshToken, &refreshID, expiredAt, createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	setExpiredAt()
	setCreatedAt()
	e.AccessToken = accessToken.String
	e.RefreshToken = refreshToken.String
	e.RefreshTokenID = refreshID.String
	return &e, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Package repomanager opens the configured database backend and vends the
// repositories bound to it, together with a schema migration hook.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophgate/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/whitelist"
)

// RepositoryManager owns the database handle shared by every repository.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Whitelist() whitelist.Store
	Close() error
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// New opens the backend named by driver ("pgx", "sqlite" or "memory").
func New(ctx context.Context, driver, dsn string) (RepositoryManager, error) {
	switch driver {
	case "memory":
		return NewMemoryRepositoryManager(), nil
	case "pgx", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == "sqlite" {
		dsn = sqliteDSN(dsn)
	}

	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == "sqlite" {
		return NewSQLiteRepositoryManager(db), nil
	}
	return NewPostgresRepositoryManager(db), nil
}

// sqliteParams make concurrent writers queue on the database lock instead of
// failing with SQLITE_BUSY. Immediate transactions take the write lock at
// BEGIN, so a second refresh of the same token waits and then finds the row gone.
var sqliteParams = []struct{ key, param string }{
	{"busy_timeout", "_pragma=busy_timeout(5000)"},
	{"journal_mode", "_pragma=journal_mode(WAL)"},
	{"_txlock", "_txlock=immediate"},
}

// sqliteDSN appends the sqliteParams the DSN does not already set.
func sqliteDSN(dsn string) string {
	var extra []string
	for _, p := range sqliteParams {
		if !strings.Contains(dsn, p.key) {
			extra = append(extra, p.param)
		}
	}
	if len(extra) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(extra, "&")
}

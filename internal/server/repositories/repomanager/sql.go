package repomanager

import (
	"context"
	"database/sql"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/gophgate/internal/dbx"
	"github.com/dmitrijs2005/gophgate/internal/server/migrations"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/whitelist"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// SQLRepositoryManager vends repositories for one SQL dialect.
type SQLRepositoryManager struct {
	db           *sql.DB
	dialect      string
	migrationsFS fs.FS
	migrationDir string
	newUsers     func(dbx.DBTX) users.Repository
	newWhitelist func(dbx.DBTX) whitelist.Repository
}

// NewPostgresRepositoryManager binds Postgres repositories to db.
func NewPostgresRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:           db,
		dialect:      "pgx",
		migrationsFS: migrations.Postgres,
		migrationDir: "postgres",
		newUsers:     func(db dbx.DBTX) users.Repository { return users.NewPostgresRepository(db) },
		newWhitelist: func(db dbx.DBTX) whitelist.Repository { return whitelist.NewPostgresRepository(db) },
	}
}

// NewSQLiteRepositoryManager binds SQLite repositories to db.
func NewSQLiteRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:           db,
		dialect:      "sqlite3",
		migrationsFS: migrations.SQLite,
		migrationDir: "sqlite",
		newUsers:     func(db dbx.DBTX) users.Repository { return users.NewSQLiteRepository(db) },
		newWhitelist: func(db dbx.DBTX) whitelist.Repository { return whitelist.NewSQLiteRepository(db) },
	}
}

// RunMigrations sets up goose with the embedded migrations and runs them.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(m.migrationsFS)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, m.migrationDir); err != nil {
		return err
	}
	return nil
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return m.newUsers(m.db)
}

func (m *SQLRepositoryManager) Whitelist() whitelist.Store {
	return whitelist.NewSQLStore(m.db, m.newWhitelist)
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}

package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophgate/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/whitelist"
)

// MemoryRepositoryManager keeps everything in process memory. State is
// lost on restart; meant for development and tests.
type MemoryRepositoryManager struct {
	users     *users.MemoryRepository
	whitelist *whitelist.MemoryStore
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:     users.NewMemoryRepository(),
		whitelist: whitelist.NewMemoryStore(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) Whitelist() whitelist.Store { return m.whitelist }

func (m *MemoryRepositoryManager) Close() error { return nil }

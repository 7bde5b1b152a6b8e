package whitelist

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/server/models"
)

// memoryRepo works on a plain map and does no locking of its own.
type memoryRepo struct {
	entries map[string]models.WhitelistEntry
	now     func() time.Time
}

func (r *memoryRepo) Create(_ context.Context, e *models.WhitelistEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, ok := r.entries[e.ID]; ok {
		return common.ErrorAlreadyExists
	}
	for _, other := range r.entries {
		if (e.AccessToken != "" && other.AccessToken == e.AccessToken) ||
			(e.RefreshToken != "" && other.RefreshToken == e.RefreshToken) {
			return common.ErrorAlreadyExists
		}
	}
	e.CreatedAt = r.now().UTC()
	r.entries[e.ID] = *e
	return nil
}

func (r *memoryRepo) find(match func(e *models.WhitelistEntry) bool) (*models.WhitelistEntry, error) {
	for _, e := range r.entries {
		if match(&e) {
			return &e, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memoryRepo) FindByAccessToken(_ context.Context, token string) (*models.WhitelistEntry, error) {
	return r.find(func(e *models.WhitelistEntry) bool { return e.AccessToken != "" && e.AccessToken == token })
}

func (r *memoryRepo) FindByRefreshToken(_ context.Context, token string) (*models.WhitelistEntry, error) {
	return r.find(func(e *models.WhitelistEntry) bool { return e.RefreshToken != "" && e.RefreshToken == token })
}

func (r *memoryRepo) FindByUserAndAccessToken(_ context.Context, userID, token string) (*models.WhitelistEntry, error) {
	return r.find(func(e *models.WhitelistEntry) bool {
		return e.UserID == userID && e.AccessToken != "" && e.AccessToken == token
	})
}

func (r *memoryRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	if _, ok := r.entries[id]; !ok {
		return false, nil
	}
	delete(r.entries, id)
	return true, nil
}

func (r *memoryRepo) deleteWhere(match func(e *models.WhitelistEntry) bool) int64 {
	var n int64
	for id, e := range r.entries {
		if match(&e) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

func (r *memoryRepo) DeleteByRefreshTokenID(_ context.Context, refreshID string) (int64, error) {
	return r.deleteWhere(func(e *models.WhitelistEntry) bool { return e.RefreshTokenID == refreshID }), nil
}

func (r *memoryRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(e *models.WhitelistEntry) bool { return e.ExpiredAt.Before(now) }), nil
}

func (r *memoryRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	return r.deleteWhere(func(e *models.WhitelistEntry) bool { return e.UserID == userID }), nil
}

// MemoryStore is a Store kept in process memory. Every call holds one mutex;
// Atomic runs fn against a snapshot and swaps it in only when fn succeeds.
type MemoryStore struct {
	mu   sync.Mutex
	repo *memoryRepo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{repo: &memoryRepo{entries: make(map[string]models.WhitelistEntry), now: time.Now}}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := &memoryRepo{entries: maps.Clone(s.repo.entries), now: s.repo.now}
	if err := fn(ctx, snapshot); err != nil {
		return err
	}
	s.repo = snapshot
	return nil
}

func (s *MemoryStore) Create(ctx context.Context, e *models.WhitelistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Create(ctx, e)
}

func (s *MemoryStore) FindByAccessToken(ctx context.Context, token string) (*models.WhitelistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.FindByAccessToken(ctx, token)
}

func (s *MemoryStore) FindByRefreshToken(ctx context.Context, token string) (*models.WhitelistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.FindByRefreshToken(ctx, token)
}

func (s *MemoryStore) FindByUserAndAccessToken(ctx context.Context, userID, token string) (*models.WhitelistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.FindByUserAndAccessToken(ctx, userID, token)
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteByID(ctx, id)
}

func (s *MemoryStore) DeleteByRefreshTokenID(ctx context.Context, refreshID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteByRefreshTokenID(ctx, refreshID)
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteExpired(ctx, now)
}

func (s *MemoryStore) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteByUser(ctx, userID)
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.repo.entries)
}

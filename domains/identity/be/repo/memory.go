package repo

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/edusekai/school-saas/domains/identity/be/service"
)

// MemoryRepository is a simple in-memory implementation suitable for tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]service.User
	byEmail map[string]uuid.UUID
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]service.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, u service.User) (service.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := r.byEmail[key]; exists {
		return service.User{}, service.ErrEmailTaken
	}

	r.byID[u.ID] = u
	r.byEmail[key] = u.ID
	return u, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (service.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return service.User{}, service.ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (service.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return service.User{}, service.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[strings.ToLower(email)]
	return ok, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return service.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, strings.ToLower(u.Email))
	return nil
}

var _ service.Repository = (*MemoryRepository)(nil)

package repo

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/edusekai/school-saas/domains/directory/be/service"
)

// MemoryRepository is a simple in-memory implementation suitable for tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]service.Tenant
	byKey   map[string]uuid.UUID
	domains map[string]service.Domain // keyed by lowercase hostname
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]service.Tenant),
		byKey:   make(map[string]uuid.UUID),
		domains: make(map[string]service.Domain),
	}
}

func (r *MemoryRepository) CreateTenant(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[t.PartitionKey]; exists {
		return service.Tenant{}, service.ErrPartitionKeyTaken
	}
	r.byID[t.ID] = t
	r.byKey[t.PartitionKey] = t.ID
	return t, nil
}

func (r *MemoryRepository) GetTenant(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return service.Tenant{}, service.ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepository) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return service.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byKey, t.PartitionKey)
	for host, d := range r.domains {
		if d.TenantID == id {
			delete(r.domains, host)
		}
	}
	return nil
}

func (r *MemoryRepository) SetTenantActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return service.ErrNotFound
	}
	t.IsActive = active
	r.byID[id] = t
	return nil
}

func (r *MemoryRepository) PartitionKeyExists(ctx context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byKey[key]
	return ok, nil
}

func (r *MemoryRepository) CreateDomain(ctx context.Context, d service.Domain) (service.Domain, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(d.Hostname)
	if _, exists := r.domains[key]; exists {
		return service.Domain{}, service.ErrHostnameTaken
	}
	r.domains[key] = d
	return d, nil
}

func (r *MemoryRepository) FindTenantByHostname(ctx context.Context, hostname string) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.domains[strings.ToLower(hostname)]
	if !ok {
		return service.Tenant{}, service.ErrNotFound
	}
	return r.byID[d.TenantID], nil
}

func (r *MemoryRepository) HostnameExists(ctx context.Context, hostname string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.domains[strings.ToLower(hostname)]
	return ok, nil
}

var _ service.Repository = (*MemoryRepository)(nil)

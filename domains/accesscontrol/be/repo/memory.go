package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	profilesrepo "github.com/edusekai/school-saas/domains/profiles/be/repo"
	profilesvc "github.com/edusekai/school-saas/domains/profiles/be/service"

	"github.com/edusekai/school-saas/domains/accesscontrol/be/service"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// MemoryStore implements service.Store per partition key in memory. Profile
// writes land in the profiles memory repository it was built with, mirroring
// the shared-transaction coupling of the postgres store.
type MemoryStore struct {
	mu       sync.Mutex
	parts    map[string]*memoryPartition
	profiles *profilesrepo.MemoryRepository
}

type memoryPartition struct {
	seeded      bool
	roles       map[string]service.Role
	grants      map[uuid.UUID]map[string]bool
	assignments map[assignmentKey]bool
}

type assignmentKey struct {
	userID   uuid.UUID
	tenantID uuid.UUID
	roleID   uuid.UUID
}

func NewMemoryStore(profiles *profilesrepo.MemoryRepository) *MemoryStore {
	if profiles == nil {
		panic("accesscontrol: profiles repository is required")
	}
	return &MemoryStore{
		parts:    make(map[string]*memoryPartition),
		profiles: profiles,
	}
}

func (s *MemoryStore) InTenant(ctx context.Context, space tenant.Space, fn func(ctx context.Context, tx service.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parts[space.PartitionKey]
	if !ok {
		p = &memoryPartition{
			roles:       make(map[string]service.Role),
			grants:      make(map[uuid.UUID]map[string]bool),
			assignments: make(map[assignmentKey]bool),
		}
		s.parts[space.PartitionKey] = p
	}
	return fn(ctx, &memoryTx{part: p, writes: s.profiles.Writes(space)})
}

type memoryTx struct {
	part   *memoryPartition
	writes *profilesrepo.MemoryWrites
}

func (t *memoryTx) EnsureSeeded(_ context.Context) error {
	if t.part.seeded {
		return nil
	}
	catalogue := service.Catalogue()
	for _, def := range service.SystemRoles() {
		role := service.Role{
			RoleID:       uuid.New(),
			Slug:         def.Slug,
			Name:         def.Name,
			Description:  def.Description,
			IsSystemRole: true,
			CreatedAt:    time.Now(),
		}
		t.part.roles[def.Slug] = role
		grants := make(map[string]bool)
		if def.Slug == service.RoleOwner {
			for _, p := range catalogue {
				grants[p.Codename] = true
			}
		} else {
			for _, codename := range def.Permissions {
				grants[codename] = true
			}
		}
		t.part.grants[role.RoleID] = grants
	}
	t.part.seeded = true
	return nil
}

func (t *memoryTx) RoleBySlug(_ context.Context, slug string) (service.Role, error) {
	role, ok := t.part.roles[slug]
	if !ok {
		return service.Role{}, service.ErrRoleNotFound
	}
	return role, nil
}

func (t *memoryTx) UpsertUserRole(_ context.Context, userID, tenantID, roleID uuid.UUID) (bool, error) {
	key := assignmentKey{userID: userID, tenantID: tenantID, roleID: roleID}
	if t.part.assignments[key] {
		return false, nil
	}
	t.part.assignments[key] = true
	return true, nil
}

func (t *memoryTx) ActiveRoles(_ context.Context, userID, tenantID uuid.UUID) ([]service.HeldRole, error) {
	var held []service.HeldRole
	for key := range t.part.assignments {
		if key.userID != userID || key.tenantID != tenantID {
			continue
		}
		for _, role := range t.part.roles {
			if role.RoleID != key.roleID {
				continue
			}
			h := service.HeldRole{RoleID: role.RoleID, Slug: role.Slug, Name: role.Name}
			for codename := range t.part.grants[role.RoleID] {
				h.Permissions = append(h.Permissions, codename)
			}
			held = append(held, h)
		}
	}
	return held, nil
}

func (t *memoryTx) ListRoles(_ context.Context) ([]service.RoleWithPermissions, error) {
	var out []service.RoleWithPermissions
	for _, role := range t.part.roles {
		r := service.RoleWithPermissions{Role: role}
		for codename := range t.part.grants[role.RoleID] {
			r.Permissions = append(r.Permissions, codename)
		}
		out = append(out, r)
	}
	return out, nil
}

func (t *memoryTx) Profiles() profilesvc.Writes {
	return t.writes
}

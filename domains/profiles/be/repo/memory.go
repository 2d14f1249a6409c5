package repo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edusekai/school-saas/domains/profiles/be/service"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// MemoryRepository keeps profiles per partition key in memory. It implements
// both the read surface and service.Writes, so tests can drive the
// provisioner and the lookup path against the same state.
type MemoryRepository struct {
	mu    sync.RWMutex
	parts map[string]*memoryPartition
}

type memoryPartition struct {
	staff       map[uuid.UUID]service.StaffProfile
	instructors map[uuid.UUID]service.InstructorProfile
	students    map[uuid.UUID]service.StudentProfile
	institution *service.InstitutionProfile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{parts: make(map[string]*memoryPartition)}
}

func (r *MemoryRepository) partition(key string) *memoryPartition {
	p, ok := r.parts[key]
	if !ok {
		p = &memoryPartition{
			staff:       make(map[uuid.UUID]service.StaffProfile),
			instructors: make(map[uuid.UUID]service.InstructorProfile),
			students:    make(map[uuid.UUID]service.StudentProfile),
		}
		r.parts[key] = p
	}
	return p
}

// Writes returns a service.Writes bound to one partition, mirroring how the
// transactional implementation is scoped to a single schema.
func (r *MemoryRepository) Writes(space tenant.Space) *MemoryWrites {
	return &MemoryWrites{repo: r, key: space.PartitionKey}
}

func (r *MemoryRepository) StaffByUser(_ context.Context, space tenant.Space, userID uuid.UUID) (service.StaffProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.parts[space.PartitionKey]; ok {
		if sp, ok := p.staff[userID]; ok {
			return sp, nil
		}
	}
	return service.StaffProfile{}, service.ErrNotFound
}

func (r *MemoryRepository) InstructorByUser(_ context.Context, space tenant.Space, userID uuid.UUID) (service.InstructorProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.parts[space.PartitionKey]; ok {
		if ip, ok := p.instructors[userID]; ok {
			return ip, nil
		}
	}
	return service.InstructorProfile{}, service.ErrNotFound
}

func (r *MemoryRepository) StudentByUser(_ context.Context, space tenant.Space, userID uuid.UUID) (service.StudentProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.parts[space.PartitionKey]; ok {
		if sp, ok := p.students[userID]; ok {
			return sp, nil
		}
	}
	return service.StudentProfile{}, service.ErrNotFound
}

func (r *MemoryRepository) Institution(_ context.Context, space tenant.Space) (service.InstitutionProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.parts[space.PartitionKey]; ok && p.institution != nil {
		return *p.institution, nil
	}
	return service.InstitutionProfile{}, service.ErrNotFound
}

func (r *MemoryRepository) UpdateInstitution(_ context.Context, space tenant.Space, in service.UpdateInstitutionInput) (service.InstitutionProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parts[space.PartitionKey]
	if !ok || p.institution == nil {
		return service.InstitutionProfile{}, service.ErrNotFound
	}
	if in.Name != nil {
		p.institution.Name = *in.Name
	}
	if in.Address != nil {
		p.institution.Address = *in.Address
	}
	if in.Phone != nil {
		p.institution.Phone = *in.Phone
	}
	if in.Email != nil {
		p.institution.Email = *in.Email
	}
	p.institution.UpdatedAt = time.Now()
	return *p.institution, nil
}

// MemoryWrites implements service.Writes against one in-memory partition.
type MemoryWrites struct {
	repo *MemoryRepository
	key  string
}

func (w *MemoryWrites) EnsureInstitution(_ context.Context, seed service.InstitutionSeed) (bool, error) {
	w.repo.mu.Lock()
	defer w.repo.mu.Unlock()
	p := w.repo.partition(w.key)
	if p.institution != nil {
		return false, nil
	}
	p.institution = &service.InstitutionProfile{
		TenantID:  seed.TenantID,
		Name:      seed.Name,
		Address:   seed.Address,
		Phone:     seed.Phone,
		Email:     seed.Email,
		UpdatedAt: time.Now(),
	}
	return true, nil
}

func (w *MemoryWrites) EnsureStaff(_ context.Context, seed service.StaffSeed) (bool, error) {
	w.repo.mu.Lock()
	defer w.repo.mu.Unlock()
	p := w.repo.partition(w.key)
	if _, ok := p.staff[seed.UserID]; ok {
		return false, nil
	}
	now := time.Now()
	p.staff[seed.UserID] = service.StaffProfile{
		ProfileID:   uuid.New(),
		UserID:      seed.UserID,
		FirstName:   seed.FirstName,
		LastName:    seed.LastName,
		EmployeeID:  seed.EmployeeID,
		Designation: seed.Designation,
		Department:  seed.Department,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return true, nil
}

func (w *MemoryWrites) EnsureInstructor(_ context.Context, seed service.InstructorSeed) (bool, error) {
	w.repo.mu.Lock()
	defer w.repo.mu.Unlock()
	p := w.repo.partition(w.key)
	if _, ok := p.instructors[seed.UserID]; ok {
		return false, nil
	}
	now := time.Now()
	p.instructors[seed.UserID] = service.InstructorProfile{
		ProfileID:  uuid.New(),
		UserID:     seed.UserID,
		FirstName:  seed.FirstName,
		LastName:   seed.LastName,
		EmployeeID: seed.EmployeeID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return true, nil
}

func (w *MemoryWrites) EnsureStudent(_ context.Context, seed service.StudentSeed) (bool, error) {
	w.repo.mu.Lock()
	defer w.repo.mu.Unlock()
	p := w.repo.partition(w.key)
	if _, ok := p.students[seed.UserID]; ok {
		return false, nil
	}
	now := time.Now()
	p.students[seed.UserID] = service.StudentProfile{
		ProfileID:    uuid.New(),
		UserID:       seed.UserID,
		FirstName:    seed.FirstName,
		LastName:     seed.LastName,
		EnrollmentID: seed.EnrollmentID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return true, nil
}

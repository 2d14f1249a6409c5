package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusekai/school-saas/platform/go/persistence"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// Errors returned by the service layer.
var (
	ErrNotFound           = errors.New("tenant not found")
	ErrPartitionKeyTaken  = errors.New("partition key already exists")
	ErrHostnameTaken      = errors.New("hostname already registered")
	ErrProvisioningFailed = errors.New("partition provisioning failed")
)

// Tenant is the directory's view of a customer organization. PartitionKey
// names a physical schema and is immutable after creation; deactivation is a
// soft flag and never drops the partition.
type Tenant struct {
	ID           uuid.UUID
	Name         string
	PartitionKey string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Space converts the directory record into the context-carried binding.
func (t Tenant) Space() tenant.Space {
	return tenant.Space{
		TenantID:     t.ID,
		Name:         t.Name,
		PartitionKey: t.PartitionKey,
		SchemaName:   tenant.SchemaNameFor(t.PartitionKey),
	}
}

// Domain maps a hostname to a tenant. Each tenant has exactly one primary
// domain, created together with the tenant.
type Domain struct {
	Hostname  string
	TenantID  uuid.UUID
	IsPrimary bool
	CreatedAt time.Time
}

// Repository abstracts persistence over the shared partition.
type Repository interface {
	CreateTenant(ctx context.Context, t Tenant) (Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (Tenant, error)
	DeleteTenant(ctx context.Context, id uuid.UUID) error
	SetTenantActive(ctx context.Context, id uuid.UUID, active bool) error
	PartitionKeyExists(ctx context.Context, key string) (bool, error)
	CreateDomain(ctx context.Context, d Domain) (Domain, error)
	FindTenantByHostname(ctx context.Context, hostname string) (Tenant, error)
	HostnameExists(ctx context.Context, hostname string) (bool, error)
}

// Provisioner creates and tears down physical partitions. Creation is a
// DDL-level operation outside any data transaction, which is why the
// registration flow treats its failures as fatal rather than retryable.
type Provisioner interface {
	Ensure(ctx context.Context, schemaName string) error
	Teardown(ctx context.Context, schemaName string) error
}

// Service provides tenant directory operations.
type Service struct {
	repo       Repository
	prov       Provisioner
	baseDomain string
	logger     *zap.Logger
}

// New constructs a Service with required dependencies.
func New(repo Repository, prov Provisioner, baseDomain string, logger *zap.Logger) *Service {
	if repo == nil {
		panic("directory repo is required")
	}
	if prov == nil {
		panic("partition provisioner is required")
	}
	if baseDomain == "" {
		panic("base domain is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, prov: prov, baseDomain: strings.ToLower(baseDomain), logger: logger}
}

// ResolveByHostname maps an inbound hostname to its tenant. The lookup is
// case-insensitive: exact match first, then the hostname treated as a bare
// subdomain of the configured base domain. Inactive tenants resolve as not
// found so a deactivated school disappears from the outside without its
// partition being touched.
func (s *Service) ResolveByHostname(ctx context.Context, hostname string) (Tenant, error) {
	candidate := normalizeHostname(hostname)
	if candidate == "" {
		return Tenant{}, ErrNotFound
	}

	t, err := s.repo.FindTenantByHostname(ctx, candidate)
	if errors.Is(err, ErrNotFound) {
		t, err = s.repo.FindTenantByHostname(ctx, candidate+"."+s.baseDomain)
	}
	if err != nil {
		return Tenant{}, err
	}
	if !t.IsActive {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

// Exists reports whether a hostname is taken, either exactly or as a
// subdomain of the base domain. The answer deliberately does not reveal
// which of the two matched.
func (s *Service) Exists(ctx context.Context, hostname string) (bool, error) {
	candidate := normalizeHostname(hostname)
	if candidate == "" {
		return false, nil
	}

	exists, err := s.repo.HostnameExists(ctx, candidate)
	if err != nil || exists {
		return exists, err
	}
	return s.repo.HostnameExists(ctx, candidate+"."+s.baseDomain)
}

// Create registers a tenant, provisions its physical partition, and creates
// the primary domain. The tenant row is written first so the partition key is
// claimed under a unique constraint; if the partition DDL then fails the row
// is removed best-effort and ErrProvisioningFailed is returned. Provisioning
// failures are not retried here: re-running DDL against a half-created
// partition risks duplicate state, so the decision is left to an operator.
func (s *Service) Create(ctx context.Context, name, partitionKey string) (Tenant, Domain, error) {
	key, err := persistence.NormalizePartitionKey(partitionKey)
	if err != nil {
		return Tenant{}, Domain{}, err
	}

	now := time.Now().UTC()
	t := Tenant{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		PartitionKey: key,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.CreateTenant(ctx, t)
	if err != nil {
		return Tenant{}, Domain{}, err
	}

	schema := tenant.SchemaNameFor(key)
	if err := s.prov.Ensure(ctx, schema); err != nil {
		if delErr := s.repo.DeleteTenant(ctx, created.ID); delErr != nil {
			s.logger.Error("remove tenant row after failed provisioning",
				zap.String("partition_key", key), zap.Error(delErr))
		}
		return Tenant{}, Domain{}, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	domain, err := s.repo.CreateDomain(ctx, Domain{
		Hostname:  tenant.PrimaryHostname(key, s.baseDomain),
		TenantID:  created.ID,
		IsPrimary: true,
		CreatedAt: now,
	})
	if err != nil {
		// A tenant without its primary domain is unreachable and its key
		// would stay claimed forever; unwind the row and the partition.
		if delErr := s.repo.DeleteTenant(ctx, created.ID); delErr != nil {
			s.logger.Error("remove tenant row after failed domain creation",
				zap.String("partition_key", key), zap.Error(delErr))
		}
		if tdErr := s.prov.Teardown(ctx, schema); tdErr != nil {
			s.logger.Error("tear down partition after failed domain creation",
				zap.String("partition_key", key), zap.Error(tdErr))
		}
		return Tenant{}, Domain{}, err
	}

	return created, domain, nil
}

// Get returns a tenant by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Tenant, error) {
	return s.repo.GetTenant(ctx, id)
}

// Deactivate soft-disables a tenant. The physical partition is kept; normal
// flows never drop partitions.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetTenantActive(ctx, id, false)
}

// Destroy removes the tenant record, its domains, and its physical partition.
// Only the registration orchestrator's compensation path calls this, and only
// for a tenant that never finished onboarding.
func (s *Service) Destroy(ctx context.Context, id uuid.UUID) error {
	t, err := s.repo.GetTenant(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteTenant(ctx, id); err != nil {
		return err
	}
	if err := s.prov.Teardown(ctx, tenant.SchemaNameFor(t.PartitionKey)); err != nil {
		return fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}
	return nil
}

// BaseDomain exposes the configured base domain for entry-URL construction.
func (s *Service) BaseDomain() string {
	return s.baseDomain
}

// SpaceForHostname adapts hostname resolution to the request binder.
func (s *Service) SpaceForHostname(ctx context.Context, hostname string) (tenant.Space, error) {
	t, err := s.ResolveByHostname(ctx, hostname)
	if errors.Is(err, ErrNotFound) {
		return tenant.Space{}, tenant.ErrUnknownHost
	}
	if err != nil {
		return tenant.Space{}, err
	}
	return t.Space(), nil
}

func normalizeHostname(hostname string) string {
	return strings.ToLower(strings.TrimSpace(hostname))
}

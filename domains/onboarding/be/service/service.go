package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	acsvc "github.com/edusekai/school-saas/domains/accesscontrol/be/service"
	dirsvc "github.com/edusekai/school-saas/domains/directory/be/service"
	idsvc "github.com/edusekai/school-saas/domains/identity/be/service"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// Identities is the slice of the identity service registration needs.
type Identities interface {
	Create(ctx context.Context, input idsvc.CreateInput) (idsvc.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Directory is the slice of the tenant directory registration needs.
type Directory interface {
	Create(ctx context.Context, name, partitionKey string) (dirsvc.Tenant, dirsvc.Domain, error)
	Destroy(ctx context.Context, id uuid.UUID) error
	BaseDomain() string
}

// AccessControl grants the owner role inside the fresh partition.
type AccessControl interface {
	AssignRole(ctx context.Context, space tenant.Space, in acsvc.AssignRoleInput) (bool, error)
}

// ConsistencyChecker verifies the owner's profile landed next to the role.
type ConsistencyChecker interface {
	CheckConsistency(ctx context.Context, space tenant.Space, userID uuid.UUID, roleSlugs []string, manualOnboarding bool) error
}

// Service orchestrates tenant registration across the shared and tenant
// partitions. The flow is deliberately sequential: each step only runs after
// the previous one committed, and failures trigger best-effort compensation
// of everything already created.
type Service struct {
	identities       Identities
	directory        Directory
	access           AccessControl
	consistency      ConsistencyChecker
	scheme           string
	port             string
	manualOnboarding bool
	logger           *zap.Logger
}

type Config struct {
	Identities    Identities
	Directory     Directory
	AccessControl AccessControl
	Consistency   ConsistencyChecker

	// Scheme and Port shape the entry URL handed back to the new school.
	Scheme string
	Port   string

	ManualOnboarding bool
	Logger           *zap.Logger
}

func New(cfg Config) *Service {
	if cfg.Identities == nil {
		panic("onboarding: identity service is required")
	}
	if cfg.Directory == nil {
		panic("onboarding: directory service is required")
	}
	if cfg.AccessControl == nil {
		panic("onboarding: access control service is required")
	}
	if cfg.Consistency == nil {
		panic("onboarding: consistency checker is required")
	}
	if cfg.Logger == nil {
		panic("onboarding: logger is required")
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return &Service{
		identities:       cfg.Identities,
		directory:        cfg.Directory,
		access:           cfg.AccessControl,
		consistency:      cfg.Consistency,
		scheme:           scheme,
		port:             cfg.Port,
		manualOnboarding: cfg.ManualOnboarding,
		logger:           cfg.Logger,
	}
}

const (
	ownerEmployeeID  = "ADMIN-001"
	ownerDesignation = "System Administrator"
)

type RegisterInput struct {
	SchoolName   string
	PartitionKey string
	Email        string
	Password     string
	FirstName    string
	LastName     string
}

type RegisterResult struct {
	User     idsvc.User
	Tenant   dirsvc.Tenant
	Domain   dirsvc.Domain
	EntryURL string
}

// Register provisions a new school end to end: owner account in the shared
// partition, tenant record, physical partition with its primary domain, and
// the owner role with its staff profile inside the new partition.
//
// Conflicts surface as the identity and directory sentinel errors so callers
// can name the offending field. Failures after the user was created roll the
// flow back best-effort; compensation failures are logged, never masked.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	user, err := s.identities.Create(ctx, idsvc.CreateInput{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		return RegisterResult{}, err
	}

	tn, domain, err := s.directory.Create(ctx, in.SchoolName, in.PartitionKey)
	if err != nil {
		s.compensateUser(ctx, user.ID)
		return RegisterResult{}, err
	}

	space := tn.Space()
	if _, err := s.access.AssignRole(ctx, space, acsvc.AssignRoleInput{
		UserID:      user.ID,
		RoleSlug:    acsvc.RoleOwner,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		EmployeeID:  ownerEmployeeID,
		Designation: ownerDesignation,
	}); err != nil {
		s.compensateTenant(ctx, tn.ID)
		s.compensateUser(ctx, user.ID)
		return RegisterResult{}, fmt.Errorf("grant owner role: %w", err)
	}

	if err := s.consistency.CheckConsistency(ctx, space, user.ID, []string{acsvc.RoleOwner}, s.manualOnboarding); err != nil {
		// Operators get the log line from the checker; registration still
		// fails so nobody ends up with a half-provisioned school.
		s.compensateTenant(ctx, tn.ID)
		s.compensateUser(ctx, user.ID)
		return RegisterResult{}, err
	}

	result := RegisterResult{
		User:     user,
		Tenant:   tn,
		Domain:   domain,
		EntryURL: s.entryURL(domain.Hostname),
	}
	s.logger.Info("tenant registered",
		zap.String("tenant_id", tn.ID.String()),
		zap.String("partition_key", tn.PartitionKey),
		zap.String("owner", user.Email),
		zap.String("entry_url", result.EntryURL))
	return result, nil
}

func (s *Service) entryURL(hostname string) string {
	url := fmt.Sprintf("%s://%s", s.scheme, hostname)
	if s.port != "" {
		url += ":" + s.port
	}
	return url
}

func (s *Service) compensateUser(ctx context.Context, userID uuid.UUID) {
	if err := s.identities.Delete(ctx, userID); err != nil {
		s.logger.Error("compensation failed: orphaned user",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

func (s *Service) compensateTenant(ctx context.Context, tenantID uuid.UUID) {
	if err := s.directory.Destroy(ctx, tenantID); err != nil {
		s.logger.Error("compensation failed: orphaned tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err))
	}
}

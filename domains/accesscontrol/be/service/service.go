package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	profilesvc "github.com/edusekai/school-saas/domains/profiles/be/service"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

var (
	ErrRoleNotFound = errors.New("role not found")
	ErrUserNotFound = errors.New("user not found")
	ErrNoTenant     = errors.New("operation requires a tenant partition")
)

type Role struct {
	RoleID       uuid.UUID
	Slug         string
	Name         string
	Description  string
	IsSystemRole bool
	CreatedAt    time.Time
}

// RoleWithPermissions pairs a role with its granted permission codenames.
type RoleWithPermissions struct {
	Role
	Permissions []string
}

// HeldRole is an active role assignment with its grants preloaded, the unit
// the permission resolver works on.
type HeldRole struct {
	RoleID      uuid.UUID
	Slug        string
	Name        string
	Permissions []string
}

// Store scopes access-control state to one tenant partition. All operations
// inside one InTenant callback share a transaction, so a role assignment and
// the profile it provisions commit or roll back together.
type Store interface {
	InTenant(ctx context.Context, space tenant.Space, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the transactional surface of the store.
type Tx interface {
	// EnsureSeeded installs the permission catalogue and system roles if the
	// partition does not have them yet. Idempotent.
	EnsureSeeded(ctx context.Context) error
	RoleBySlug(ctx context.Context, slug string) (Role, error)
	// UpsertUserRole reports whether a new assignment row was created.
	UpsertUserRole(ctx context.Context, userID, tenantID, roleID uuid.UUID) (bool, error)
	ActiveRoles(ctx context.Context, userID, tenantID uuid.UUID) ([]HeldRole, error)
	ListRoles(ctx context.Context) ([]RoleWithPermissions, error)
	// Profiles exposes profile writes bound to the same transaction.
	Profiles() profilesvc.Writes
}

// IdentityDirectory verifies that a user id exists in the shared partition
// before it is written into a tenant partition.
type IdentityDirectory interface {
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// ProfileProvisioner creates the profile a role assignment implies.
type ProfileProvisioner interface {
	ProvisionForRole(ctx context.Context, w profilesvc.Writes, in profilesvc.RoleAssignment) error
}

type Service struct {
	store       Store
	users       IdentityDirectory
	provisioner ProfileProvisioner
	logger      *zap.Logger
}

type Config struct {
	Store       Store
	Users       IdentityDirectory
	Provisioner ProfileProvisioner
	Logger      *zap.Logger
}

func New(cfg Config) *Service {
	if cfg.Store == nil {
		panic("accesscontrol: store is required")
	}
	if cfg.Users == nil {
		panic("accesscontrol: identity directory is required")
	}
	if cfg.Provisioner == nil {
		panic("accesscontrol: profile provisioner is required")
	}
	if cfg.Logger == nil {
		panic("accesscontrol: logger is required")
	}
	return &Service{
		store:       cfg.Store,
		users:       cfg.Users,
		provisioner: cfg.Provisioner,
		logger:      cfg.Logger,
	}
}

type AssignRoleInput struct {
	UserID    uuid.UUID
	RoleSlug  string
	FirstName string
	LastName  string

	// Optional overrides for the provisioned profile.
	EmployeeID  string
	Designation string
}

// AssignRole grants a role to a user inside the bound tenant and provisions
// the matching profile in the same transaction. Repeating an assignment is a
// no-op; the reported flag tells whether this call created it.
func (s *Service) AssignRole(ctx context.Context, space tenant.Space, in AssignRoleInput) (bool, error) {
	if space.IsShared() {
		return false, ErrNoTenant
	}

	exists, err := s.users.Exists(ctx, in.UserID)
	if err != nil {
		return false, fmt.Errorf("verify user: %w", err)
	}
	if !exists {
		return false, ErrUserNotFound
	}

	var created bool
	err = s.store.InTenant(ctx, space, func(ctx context.Context, tx Tx) error {
		if err := tx.EnsureSeeded(ctx); err != nil {
			return err
		}
		role, err := tx.RoleBySlug(ctx, in.RoleSlug)
		if err != nil {
			return err
		}
		created, err = tx.UpsertUserRole(ctx, in.UserID, space.TenantID, role.RoleID)
		if err != nil {
			return err
		}
		// Provisioning runs even for repeated assignments so a partition
		// missing a profile heals on the next call.
		return s.provisioner.ProvisionForRole(ctx, tx.Profiles(), profilesvc.RoleAssignment{
			UserID:      in.UserID,
			TenantID:    space.TenantID,
			RoleSlug:    role.Slug,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			TenantName:  space.Name,
			EmployeeID:  in.EmployeeID,
			Designation: in.Designation,
		})
	})
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("role assigned",
			zap.String("user_id", in.UserID.String()),
			zap.String("tenant", space.PartitionKey),
			zap.String("role", in.RoleSlug))
	}
	return created, nil
}

// ListRoles returns every role in the bound tenant with its grants, seeding
// the partition first if needed.
func (s *Service) ListRoles(ctx context.Context, space tenant.Space) ([]RoleWithPermissions, error) {
	if space.IsShared() {
		return nil, ErrNoTenant
	}
	var roles []RoleWithPermissions
	err := s.store.InTenant(ctx, space, func(ctx context.Context, tx Tx) error {
		if err := tx.EnsureSeeded(ctx); err != nil {
			return err
		}
		var err error
		roles, err = tx.ListRoles(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// ActiveRoles returns the slugs of roles a user actively holds in the bound
// tenant.
func (s *Service) ActiveRoles(ctx context.Context, space tenant.Space, userID uuid.UUID) ([]HeldRole, error) {
	if space.IsShared() {
		return nil, ErrNoTenant
	}
	var held []HeldRole
	err := s.store.InTenant(ctx, space, func(ctx context.Context, tx Tx) error {
		var err error
		held, err = tx.ActiveRoles(ctx, userID, space.TenantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return held, nil
}

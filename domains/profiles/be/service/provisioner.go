package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Writes is the mutation surface the provisioner needs. A transactional
// implementation lets callers create the profile in the same database
// transaction as the role assignment that triggered it; Ensure methods are
// idempotent and report whether a row was created.
type Writes interface {
	EnsureInstitution(ctx context.Context, seed InstitutionSeed) (bool, error)
	EnsureStaff(ctx context.Context, seed StaffSeed) (bool, error)
	EnsureInstructor(ctx context.Context, seed InstructorSeed) (bool, error)
	EnsureStudent(ctx context.Context, seed StudentSeed) (bool, error)
}

type InstitutionSeed struct {
	TenantID uuid.UUID
	Name     string
	Address  string
	Phone    string
	Email    string
}

type StaffSeed struct {
	UserID      uuid.UUID
	FirstName   string
	LastName    string
	EmployeeID  string
	Designation string
	Department  string
}

type InstructorSeed struct {
	UserID     uuid.UUID
	FirstName  string
	LastName   string
	EmployeeID string
}

type StudentSeed struct {
	UserID       uuid.UUID
	FirstName    string
	LastName     string
	EnrollmentID string
}

// RoleAssignment carries the context of a freshly assigned role into the
// provisioning policy.
type RoleAssignment struct {
	UserID    uuid.UUID
	TenantID  uuid.UUID
	RoleSlug  string
	FirstName string
	LastName  string

	// TenantName backs the institution profile fallback when the tenant has
	// no institution row yet.
	TenantName string

	// EmployeeID and Designation override the generated defaults when set.
	EmployeeID  string
	Designation string
}

// Provisioner maps role assignments to profile creation. With manual
// onboarding enabled, student and instructor profiles are left for staff to
// create through the enrolment flow and only staff profiles are provisioned
// automatically.
type Provisioner struct {
	manualOnboarding bool
	logger           *zap.Logger
}

type ProvisionerConfig struct {
	ManualOnboarding bool
	Logger           *zap.Logger
}

func NewProvisioner(cfg ProvisionerConfig) *Provisioner {
	if cfg.Logger == nil {
		panic("profiles: provisioner logger is required")
	}
	return &Provisioner{
		manualOnboarding: cfg.ManualOnboarding,
		logger:           cfg.Logger,
	}
}

// ProvisionForRole creates the profile a role assignment implies, if any.
// It is idempotent: an existing profile of the right family is left alone.
func (p *Provisioner) ProvisionForRole(ctx context.Context, w Writes, in RoleAssignment) error {
	if _, err := w.EnsureInstitution(ctx, InstitutionSeed{
		TenantID: in.TenantID,
		Name:     in.TenantName,
	}); err != nil {
		return fmt.Errorf("ensure institution profile: %w", err)
	}

	switch in.RoleSlug {
	case "owner", "staff":
		designation := in.Designation
		if designation == "" {
			designation = "Staff"
			if in.RoleSlug == "owner" {
				designation = "Owner / Administrator"
			}
		}
		created, err := w.EnsureStaff(ctx, StaffSeed{
			UserID:      in.UserID,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			EmployeeID:  orDefault(in.EmployeeID, employeeID(in.UserID)),
			Designation: designation,
		})
		if err != nil {
			return fmt.Errorf("ensure staff profile: %w", err)
		}
		p.logProvisioned(in, KindStaff, created)
		return nil

	case "instructor":
		if p.manualOnboarding {
			p.logSkipped(in)
			return nil
		}
		created, err := w.EnsureInstructor(ctx, InstructorSeed{
			UserID:     in.UserID,
			FirstName:  in.FirstName,
			LastName:   in.LastName,
			EmployeeID: orDefault(in.EmployeeID, employeeID(in.UserID)),
		})
		if err != nil {
			return fmt.Errorf("ensure instructor profile: %w", err)
		}
		p.logProvisioned(in, KindInstructor, created)
		return nil

	case "student":
		if p.manualOnboarding {
			p.logSkipped(in)
			return nil
		}
		created, err := w.EnsureStudent(ctx, StudentSeed{
			UserID:       in.UserID,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			EnrollmentID: enrollmentID(in.UserID),
		})
		if err != nil {
			return fmt.Errorf("ensure student profile: %w", err)
		}
		p.logProvisioned(in, KindStudent, created)
		return nil
	}

	// Custom roles carry no profile.
	return nil
}

// KindForRole reports the profile family a role slug provisions, if any.
func KindForRole(slug string) (Kind, bool) {
	switch slug {
	case "owner", "staff":
		return KindStaff, true
	case "instructor":
		return KindInstructor, true
	case "student":
		return KindStudent, true
	}
	return "", false
}

// ManualOnboarding reports whether student and instructor profiles are left
// to the manual enrolment flow.
func (p *Provisioner) ManualOnboarding() bool { return p.manualOnboarding }

func (p *Provisioner) logProvisioned(in RoleAssignment, kind Kind, created bool) {
	if !created {
		return
	}
	p.logger.Info("profile provisioned",
		zap.String("user_id", in.UserID.String()),
		zap.String("tenant_id", in.TenantID.String()),
		zap.String("role", in.RoleSlug),
		zap.String("kind", string(kind)))
}

func (p *Provisioner) logSkipped(in RoleAssignment) {
	p.logger.Info("profile provisioning deferred to manual onboarding",
		zap.String("user_id", in.UserID.String()),
		zap.String("tenant_id", in.TenantID.String()),
		zap.String("role", in.RoleSlug))
}

func employeeID(userID uuid.UUID) string {
	return "EMP-" + shortUpper(userID)
}

func enrollmentID(userID uuid.UUID) string {
	return "ENR-" + shortUpper(userID)
}

func shortUpper(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

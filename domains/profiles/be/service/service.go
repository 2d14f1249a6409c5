package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusekai/school-saas/platform/go/tenant"
)

// Repository is the read and update surface for profile lookups within a
// bound tenant partition.
type Repository interface {
	StaffByUser(ctx context.Context, space tenant.Space, userID uuid.UUID) (StaffProfile, error)
	InstructorByUser(ctx context.Context, space tenant.Space, userID uuid.UUID) (InstructorProfile, error)
	StudentByUser(ctx context.Context, space tenant.Space, userID uuid.UUID) (StudentProfile, error)
	Institution(ctx context.Context, space tenant.Space) (InstitutionProfile, error)
	UpdateInstitution(ctx context.Context, space tenant.Space, in UpdateInstitutionInput) (InstitutionProfile, error)
}

type UpdateInstitutionInput struct {
	Name    *string
	Address *string
	Phone   *string
	Email   *string
}

type Service struct {
	repo   Repository
	logger *zap.Logger
}

type Config struct {
	Repository Repository
	Logger     *zap.Logger
}

func New(cfg Config) *Service {
	if cfg.Repository == nil {
		panic("profiles: repository is required")
	}
	if cfg.Logger == nil {
		panic("profiles: logger is required")
	}
	return &Service{repo: cfg.Repository, logger: cfg.Logger}
}

// MyProfile resolves the caller's profile in the bound tenant. Users holding
// several profiles get the highest-priority one.
func (s *Service) MyProfile(ctx context.Context, space tenant.Space, userID uuid.UUID) (Resolved, error) {
	for _, kind := range kindPriority {
		resolved, err := s.lookup(ctx, space, userID, kind)
		if err == nil {
			return resolved, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Resolved{}, err
		}
	}
	return Resolved{}, ErrNotFound
}

func (s *Service) lookup(ctx context.Context, space tenant.Space, userID uuid.UUID, kind Kind) (Resolved, error) {
	switch kind {
	case KindStaff:
		p, err := s.repo.StaffByUser(ctx, space, userID)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Kind: KindStaff, Staff: &p}, nil
	case KindInstructor:
		p, err := s.repo.InstructorByUser(ctx, space, userID)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Kind: KindInstructor, Instructor: &p}, nil
	default:
		p, err := s.repo.StudentByUser(ctx, space, userID)
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{Kind: KindStudent, Student: &p}, nil
	}
}

// Institution returns the tenant's school record.
func (s *Service) Institution(ctx context.Context, space tenant.Space) (InstitutionProfile, error) {
	return s.repo.Institution(ctx, space)
}

// UpdateInstitution applies a partial update to the school record.
func (s *Service) UpdateInstitution(ctx context.Context, space tenant.Space, in UpdateInstitutionInput) (InstitutionProfile, error) {
	return s.repo.UpdateInstitution(ctx, space, in)
}

// CheckConsistency verifies that every profile-bearing role the user holds is
// backed by a profile row. Under manual onboarding only staff roles are
// expected to carry profiles. A violation is surfaced as ErrInconsistent so
// operators can repair the partition.
func (s *Service) CheckConsistency(ctx context.Context, space tenant.Space, userID uuid.UUID, roleSlugs []string, manualOnboarding bool) error {
	for _, slug := range roleSlugs {
		kind, ok := KindForRole(slug)
		if !ok {
			continue
		}
		if manualOnboarding && kind != KindStaff {
			continue
		}
		if _, err := s.lookup(ctx, space, userID, kind); err != nil {
			if errors.Is(err, ErrNotFound) {
				s.logger.Error("role assignment without matching profile",
					zap.String("user_id", userID.String()),
					zap.String("tenant", space.PartitionKey),
					zap.String("role", slug),
					zap.String("expected_kind", string(kind)))
				return fmt.Errorf("%w: role %q expects a %s profile", ErrInconsistent, slug, kind)
			}
			return err
		}
	}
	return nil
}

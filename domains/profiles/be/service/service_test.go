package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusekai/school-saas/domains/profiles/be/repo"
	"github.com/edusekai/school-saas/domains/profiles/be/service"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

func testSpace() tenant.Space {
	return tenant.Space{
		TenantID:     uuid.New(),
		Name:         "Acme Academy",
		PartitionKey: "acme",
		SchemaName:   "acme",
	}
}

func newProvisioner(t *testing.T, manual bool) *service.Provisioner {
	t.Helper()
	return service.NewProvisioner(service.ProvisionerConfig{
		ManualOnboarding: manual,
		Logger:           zap.NewNop(),
	})
}

func TestProvisionOwnerCreatesStaffProfile(t *testing.T) {
	ctx := context.Background()
	space := testSpace()
	memory := repo.NewMemoryRepository()
	prov := newProvisioner(t, false)

	userID := uuid.New()
	err := prov.ProvisionForRole(ctx, memory.Writes(space), service.RoleAssignment{
		UserID:     userID,
		TenantID:   space.TenantID,
		RoleSlug:   "owner",
		FirstName:  "Ada",
		LastName:   "Lovelace",
		TenantName: space.Name,
	})
	require.NoError(t, err)

	staff, err := memory.StaffByUser(ctx, space, userID)
	require.NoError(t, err)
	require.Equal(t, "Owner / Administrator", staff.Designation)
	require.Regexp(t, `^EMP-[0-9A-F]{8}$`, staff.EmployeeID)

	inst, err := memory.Institution(ctx, space)
	require.NoError(t, err)
	require.Equal(t, "Acme Academy", inst.Name)
}

func TestProvisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	space := testSpace()
	memory := repo.NewMemoryRepository()
	prov := newProvisioner(t, false)

	in := service.RoleAssignment{
		UserID:     uuid.New(),
		TenantID:   space.TenantID,
		RoleSlug:   "staff",
		FirstName:  "Grace",
		LastName:   "Hopper",
		TenantName: space.Name,
	}
	require.NoError(t, prov.ProvisionForRole(ctx, memory.Writes(space), in))
	first, err := memory.StaffByUser(ctx, space, in.UserID)
	require.NoError(t, err)

	require.NoError(t, prov.ProvisionForRole(ctx, memory.Writes(space), in))
	second, err := memory.StaffByUser(ctx, space, in.UserID)
	require.NoError(t, err)
	require.Equal(t, first.ProfileID, second.ProfileID)
}

func TestManualOnboardingSkipsStudentAndInstructor(t *testing.T) {
	ctx := context.Background()
	space := testSpace()
	memory := repo.NewMemoryRepository()
	prov := newProvisioner(t, true)

	for _, slug := range []string{"student", "instructor"} {
		userID := uuid.New()
		err := prov.ProvisionForRole(ctx, memory.Writes(space), service.RoleAssignment{
			UserID:     userID,
			TenantID:   space.TenantID,
			RoleSlug:   slug,
			TenantName: space.Name,
		})
		require.NoError(t, err)

		_, err = memory.StudentByUser(ctx, space, userID)
		require.ErrorIs(t, err, service.ErrNotFound)
		_, err = memory.InstructorByUser(ctx, space, userID)
		require.ErrorIs(t, err, service.ErrNotFound)
	}
}

func TestProvisionStudentWithoutManualOnboarding(t *testing.T) {
	ctx := context.Background()
	space := testSpace()
	memory := repo.NewMemoryRepository()
	prov := newProvisioner(t, false)

	userID := uuid.New()
	err := prov.ProvisionForRole(ctx, memory.Writes(space), service.RoleAssignment{
		UserID:     userID,
		TenantID:   space.TenantID,
		RoleSlug:   "student",
		FirstName:  "Alan",
		LastName:   "Turing",
		TenantName: space.Name,
	})
	require.NoError(t, err)

	student, err := memory.StudentByUser(ctx, space, userID)
	require.NoError(t, err)
	require.Regexp(t, `^ENR-[0-9A-F]{8}$`, student.EnrollmentID)
}

func TestCustomRoleCreatesNoProfile(t *testing.T) {
	ctx := context.Background()
	space := testSpace()
	memory := repo.NewMemoryRepository()
	prov := newProvisioner(t, false)

	userID := uuid.New()
	err := prov.ProvisionForRole(ctx, memory.Writes(space), service.RoleAssignment{
		UserID:     userID,
		TenantID:   space.TenantID,
		RoleSlug:   "librarian",
		TenantName: space.Name,
	})
	require.NoError(t, err)

	svc := service.New(service.Config{Repository: memory, Logger: zap.NewNop()})
	_, err = svc.MyProfile(ctx, space, userID)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestMyProfilePrefersStaffOverStudent(t *testing.T) {
	ctx := context.Background()
	space := testSpace()
	memory := repo.NewMemoryRepository()
	prov := newProvisioner(t, false)
	svc := service.New(service.Config{Repository: memory, Logger: zap.NewNop()})

	userID := uuid.New()
	for _, slug := range []string{"student", "staff"} {
		require.NoError(t, prov.ProvisionForRole(ctx, memory.Writes(space), service.RoleAssignment{
			UserID:     userID,
			TenantID:   space.TenantID,
			RoleSlug:   slug,
			TenantName: space.Name,
		}))
	}

	resolved, err := svc.MyProfile(ctx, space, userID)
	require.NoError(t, err)
	require.Equal(t, service.KindStaff, resolved.Kind)
	require.NotNil(t, resolved.Staff)
	require.Nil(t, resolved.Student)
}

func TestMyProfileIsPartitionScoped(t *testing.T) {
	ctx := context.Background()
	spaceA := testSpace()
	spaceB := tenant.Space{TenantID: uuid.New(), Name: "Borealis", PartitionKey: "borealis", SchemaName: "borealis"}
	memory := repo.NewMemoryRepository()
	prov := newProvisioner(t, false)
	svc := service.New(service.Config{Repository: memory, Logger: zap.NewNop()})

	userID := uuid.New()
	require.NoError(t, prov.ProvisionForRole(ctx, memory.Writes(spaceA), service.RoleAssignment{
		UserID:     userID,
		TenantID:   spaceA.TenantID,
		RoleSlug:   "staff",
		TenantName: spaceA.Name,
	}))

	_, err := svc.MyProfile(ctx, spaceB, userID)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestUpdateInstitutionPartialPatch(t *testing.T) {
	ctx := context.Background()
	space := testSpace()
	memory := repo.NewMemoryRepository()
	prov := newProvisioner(t, false)
	svc := service.New(service.Config{Repository: memory, Logger: zap.NewNop()})

	require.NoError(t, prov.ProvisionForRole(ctx, memory.Writes(space), service.RoleAssignment{
		UserID:     uuid.New(),
		TenantID:   space.TenantID,
		RoleSlug:   "owner",
		TenantName: space.Name,
	}))

	phone := "+1-555-0100"
	updated, err := svc.UpdateInstitution(ctx, space, service.UpdateInstitutionInput{Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, "+1-555-0100", updated.Phone)
	require.Equal(t, "Acme Academy", updated.Name)
}

func TestCheckConsistencyFlagsMissingProfile(t *testing.T) {
	ctx := context.Background()
	space := testSpace()
	memory := repo.NewMemoryRepository()
	svc := service.New(service.Config{Repository: memory, Logger: zap.NewNop()})

	userID := uuid.New()
	err := svc.CheckConsistency(ctx, space, userID, []string{"staff"}, false)
	require.ErrorIs(t, err, service.ErrInconsistent)

	// Under manual onboarding a bare student role is expected.
	err = svc.CheckConsistency(ctx, space, userID, []string{"student"}, true)
	require.NoError(t, err)
}

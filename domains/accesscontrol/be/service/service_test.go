package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusekai/school-saas/domains/accesscontrol/be/repo"
	"github.com/edusekai/school-saas/domains/accesscontrol/be/service"
	profilesrepo "github.com/edusekai/school-saas/domains/profiles/be/repo"
	profilesvc "github.com/edusekai/school-saas/domains/profiles/be/service"
	"github.com/edusekai/school-saas/platform/go/auth"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

type stubDirectory struct {
	known map[uuid.UUID]bool
}

func (d *stubDirectory) Exists(_ context.Context, userID uuid.UUID) (bool, error) {
	return d.known[userID], nil
}

type fixture struct {
	svc      *service.Service
	resolver *service.Resolver
	profiles *profilesrepo.MemoryRepository
	dir      *stubDirectory
	space    tenant.Space
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	profiles := profilesrepo.NewMemoryRepository()
	store := repo.NewMemoryStore(profiles)
	dir := &stubDirectory{known: make(map[uuid.UUID]bool)}
	prov := profilesvc.NewProvisioner(profilesvc.ProvisionerConfig{Logger: zap.NewNop()})
	svc := service.New(service.Config{
		Store:       store,
		Users:       dir,
		Provisioner: prov,
		Logger:      zap.NewNop(),
	})
	return &fixture{
		svc:      svc,
		resolver: service.NewResolver(store, zap.NewNop()),
		profiles: profiles,
		dir:      dir,
		space: tenant.Space{
			TenantID:     uuid.New(),
			Name:         "Acme Academy",
			PartitionKey: "acme",
			SchemaName:   "acme",
		},
	}
}

func (f *fixture) newUser() uuid.UUID {
	id := uuid.New()
	f.dir.known[id] = true
	return id
}

func TestAssignRoleProvisionsProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.newUser()

	created, err := f.svc.AssignRole(ctx, f.space, service.AssignRoleInput{
		UserID:    userID,
		RoleSlug:  service.RoleOwner,
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.True(t, created)

	staff, err := f.profiles.StaffByUser(ctx, f.space, userID)
	require.NoError(t, err)
	require.Equal(t, "Ada", staff.FirstName)

	held, err := f.svc.ActiveRoles(ctx, f.space, userID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	require.Equal(t, service.RoleOwner, held[0].Slug)
}

func TestAssignRoleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.newUser()

	in := service.AssignRoleInput{UserID: userID, RoleSlug: service.RoleStaff}
	created, err := f.svc.AssignRole(ctx, f.space, in)
	require.NoError(t, err)
	require.True(t, created)

	created, err = f.svc.AssignRole(ctx, f.space, in)
	require.NoError(t, err)
	require.False(t, created)

	held, err := f.svc.ActiveRoles(ctx, f.space, userID)
	require.NoError(t, err)
	require.Len(t, held, 1)
}

func TestAssignRoleConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.newUser()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.AssignRole(ctx, f.space, service.AssignRoleInput{
				UserID:   userID,
				RoleSlug: service.RoleStaff,
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	held, err := f.svc.ActiveRoles(ctx, f.space, userID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	_, err = f.profiles.StaffByUser(ctx, f.space, userID)
	require.NoError(t, err)
}

func TestAssignRoleUnknownRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AssignRole(context.Background(), f.space, service.AssignRoleInput{
		UserID:   f.newUser(),
		RoleSlug: "warden",
	})
	require.ErrorIs(t, err, service.ErrRoleNotFound)
}

func TestAssignRoleUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AssignRole(context.Background(), f.space, service.AssignRoleInput{
		UserID:   uuid.New(),
		RoleSlug: service.RoleStaff,
	})
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestAssignRoleRejectsSharedPartition(t *testing.T) {
	f := newFixture(t)
	shared := tenant.Space{SchemaName: tenant.SharedSchema}
	_, err := f.svc.AssignRole(context.Background(), shared, service.AssignRoleInput{
		UserID:   f.newUser(),
		RoleSlug: service.RoleStaff,
	})
	require.ErrorIs(t, err, service.ErrNoTenant)
}

func TestListRolesSeedsSystemRoles(t *testing.T) {
	f := newFixture(t)
	roles, err := f.svc.ListRoles(context.Background(), f.space)
	require.NoError(t, err)
	require.Len(t, roles, 4)

	bySlug := make(map[string]service.RoleWithPermissions)
	for _, r := range roles {
		require.True(t, r.IsSystemRole)
		bySlug[r.Slug] = r
	}
	require.Len(t, bySlug[service.RoleOwner].Permissions, len(service.Catalogue()))
	require.Contains(t, bySlug[service.RoleStaff].Permissions, "view_role")
	require.NotContains(t, bySlug[service.RoleStudent].Permissions, "edit_role")
}

func TestAuthorizeDefaultDeny(t *testing.T) {
	f := newFixture(t)
	id := auth.Identity{UserID: f.newUser()}
	require.False(t, f.resolver.Authorize(context.Background(), id, f.space, "view_role", ""))
}

func TestAuthorizeGrantedPermission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.newUser()
	_, err := f.svc.AssignRole(ctx, f.space, service.AssignRoleInput{UserID: userID, RoleSlug: service.RoleStaff})
	require.NoError(t, err)

	id := auth.Identity{UserID: userID}
	require.True(t, f.resolver.Authorize(ctx, id, f.space, "view_role", ""))
	require.False(t, f.resolver.Authorize(ctx, id, f.space, "delete_role", ""))
}

func TestAuthorizeOwnerPassesEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.newUser()
	_, err := f.svc.AssignRole(ctx, f.space, service.AssignRoleInput{UserID: userID, RoleSlug: service.RoleOwner})
	require.NoError(t, err)

	id := auth.Identity{UserID: userID}
	for _, p := range service.Catalogue() {
		require.True(t, f.resolver.Authorize(ctx, id, f.space, p.Codename, ""))
	}
}

func TestAuthorizeSuperuserBypassesRoles(t *testing.T) {
	f := newFixture(t)
	id := auth.Identity{UserID: uuid.New(), IsSuperuser: true}
	require.True(t, f.resolver.Authorize(context.Background(), id, f.space, "delete_role", ""))
}

func TestAuthorizeAnyHeldRoleSuffices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.newUser()
	for _, slug := range []string{service.RoleStudent, service.RoleStaff} {
		_, err := f.svc.AssignRole(ctx, f.space, service.AssignRoleInput{UserID: userID, RoleSlug: slug})
		require.NoError(t, err)
	}

	// Students cannot edit the institution profile, but the staff role the
	// user also holds grants it without naming a role.
	id := auth.Identity{UserID: userID}
	require.True(t, f.resolver.Authorize(ctx, id, f.space, "edit_institution_profile", ""))
}

func TestAuthorizeUnheldHintDenies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.newUser()
	_, err := f.svc.AssignRole(ctx, f.space, service.AssignRoleInput{UserID: userID, RoleSlug: service.RoleStaff})
	require.NoError(t, err)

	// Staff grants the permission, but the hint names a role the user does
	// not hold.
	id := auth.Identity{UserID: userID}
	require.False(t, f.resolver.Authorize(ctx, id, f.space, "view_role", service.RoleOwner))
	require.True(t, f.resolver.Authorize(ctx, id, f.space, "view_role", service.RoleStaff))
}

func TestAuthorizeHintRestrictsToNamedRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := f.newUser()
	for _, slug := range []string{service.RoleStudent, service.RoleStaff} {
		_, err := f.svc.AssignRole(ctx, f.space, service.AssignRoleInput{UserID: userID, RoleSlug: slug})
		require.NoError(t, err)
	}

	// The student role is held but does not grant the permission; the staff
	// role would, but the hint excludes it.
	id := auth.Identity{UserID: userID}
	require.False(t, f.resolver.Authorize(ctx, id, f.space, "edit_institution_profile", service.RoleStudent))
}

func TestAuthorizeDeniesOnSharedPartition(t *testing.T) {
	f := newFixture(t)
	shared := tenant.Space{SchemaName: tenant.SharedSchema}
	id := auth.Identity{UserID: f.newUser()}
	require.False(t, f.resolver.Authorize(context.Background(), id, shared, "view_role", ""))
}

func TestRolesArePartitionScoped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other := tenant.Space{TenantID: uuid.New(), Name: "Borealis", PartitionKey: "borealis", SchemaName: "borealis"}
	userID := f.newUser()
	_, err := f.svc.AssignRole(ctx, f.space, service.AssignRoleInput{UserID: userID, RoleSlug: service.RoleOwner})
	require.NoError(t, err)

	id := auth.Identity{UserID: userID}
	require.True(t, f.resolver.Authorize(ctx, id, f.space, "view_role", ""))
	require.False(t, f.resolver.Authorize(ctx, id, other, "view_role", ""))
}

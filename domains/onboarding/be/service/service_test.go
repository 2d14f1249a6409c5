package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	acrepo "github.com/edusekai/school-saas/domains/accesscontrol/be/repo"
	acsvc "github.com/edusekai/school-saas/domains/accesscontrol/be/service"
	dirrepo "github.com/edusekai/school-saas/domains/directory/be/repo"
	dirsvc "github.com/edusekai/school-saas/domains/directory/be/service"
	idrepo "github.com/edusekai/school-saas/domains/identity/be/repo"
	idsvc "github.com/edusekai/school-saas/domains/identity/be/service"
	"github.com/edusekai/school-saas/domains/onboarding/be/service"
	profilesrepo "github.com/edusekai/school-saas/domains/profiles/be/repo"
	profilesvc "github.com/edusekai/school-saas/domains/profiles/be/service"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

type stubProvisioner struct {
	failEnsure bool
	tornDown   []string
}

func (p *stubProvisioner) Ensure(_ context.Context, schemaName string) error {
	if p.failEnsure {
		return errors.New("ddl failed")
	}
	return nil
}

func (p *stubProvisioner) Teardown(_ context.Context, schemaName string) error {
	p.tornDown = append(p.tornDown, schemaName)
	return nil
}

type harness struct {
	svc       *service.Service
	identity  *idsvc.Service
	directory *dirsvc.Service
	access    *acsvc.Service
	resolver  *acsvc.Resolver
	profiles  *profilesrepo.MemoryRepository
	prov      *stubProvisioner
}

type harnessOpts struct {
	failEnsure bool
	port       string
	access     service.AccessControl
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()
	logger := zap.NewNop()

	identity := idsvc.New(idrepo.NewMemoryRepository())
	prov := &stubProvisioner{failEnsure: opts.failEnsure}
	directory := dirsvc.New(dirrepo.NewMemoryRepository(), prov, "edusekai.io", logger)

	profiles := profilesrepo.NewMemoryRepository()
	store := acrepo.NewMemoryStore(profiles)
	profileProv := profilesvc.NewProvisioner(profilesvc.ProvisionerConfig{Logger: logger})
	access := acsvc.New(acsvc.Config{
		Store:       store,
		Users:       identity,
		Provisioner: profileProv,
		Logger:      logger,
	})
	profileSvc := profilesvc.New(profilesvc.Config{Repository: profiles, Logger: logger})

	var accessDep service.AccessControl = access
	if opts.access != nil {
		accessDep = opts.access
	}
	svc := service.New(service.Config{
		Identities:    identity,
		Directory:     directory,
		AccessControl: accessDep,
		Consistency:   profileSvc,
		Scheme:        "https",
		Port:          opts.port,
		Logger:        logger,
	})
	return &harness{
		svc:       svc,
		identity:  identity,
		directory: directory,
		access:    access,
		resolver:  acsvc.NewResolver(store, logger),
		profiles:  profiles,
		prov:      prov,
	}
}

func validInput() service.RegisterInput {
	return service.RegisterInput{
		SchoolName:   "Acme Academy",
		PartitionKey: "acme",
		Email:        "owner@acme.test",
		Password:     "s3cret-pass",
		FirstName:    "Ada",
		LastName:     "Lovelace",
	}
}

func TestRegisterProvisionsEverything(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	res, err := h.svc.Register(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, "https://acme.edusekai.io", res.EntryURL)
	require.Equal(t, "acme.edusekai.io", res.Domain.Hostname)
	require.True(t, res.Domain.IsPrimary)

	// The hostname resolves to the new tenant.
	tn, err := h.directory.ResolveByHostname(ctx, "acme.edusekai.io")
	require.NoError(t, err)
	require.Equal(t, res.Tenant.ID, tn.ID)

	// The owner can authenticate and holds the owner role.
	user, err := h.identity.Authenticate(ctx, "owner@acme.test", "s3cret-pass")
	require.NoError(t, err)
	held, err := h.access.ActiveRoles(ctx, tn.Space(), user.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	require.Equal(t, acsvc.RoleOwner, held[0].Slug)

	// The staff profile and institution record were provisioned alongside.
	staff, err := h.profiles.StaffByUser(ctx, tn.Space(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "ADMIN-001", staff.EmployeeID)
	require.Equal(t, "System Administrator", staff.Designation)

	inst, err := h.profiles.Institution(ctx, tn.Space())
	require.NoError(t, err)
	require.Equal(t, "Acme Academy", inst.Name)
}

func TestRegisterEntryURLWithPort(t *testing.T) {
	h := newHarness(t, harnessOpts{port: "8443"})
	res, err := h.svc.Register(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, "https://acme.edusekai.io:8443", res.EntryURL)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	_, err := h.svc.Register(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.PartitionKey = "other"
	in.SchoolName = "Other School"
	_, err = h.svc.Register(ctx, in)
	require.ErrorIs(t, err, idsvc.ErrEmailTaken)

	// The second school must not exist.
	exists, err := h.directory.Exists(ctx, "other")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestRegisterDuplicatePartitionKeyCompensatesUser(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})
	_, err := h.svc.Register(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "second@acme.test"
	_, err = h.svc.Register(ctx, in)
	require.ErrorIs(t, err, dirsvc.ErrPartitionKeyTaken)

	// The second owner account was rolled back, so the email is free again.
	taken, err := h.identity.EmailExists(ctx, "second@acme.test")
	require.NoError(t, err)
	require.False(t, taken)
}

func TestRegisterProvisioningFailureCompensates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{failEnsure: true})

	_, err := h.svc.Register(ctx, validInput())
	require.ErrorIs(t, err, dirsvc.ErrProvisioningFailed)

	// Everything is reclaimable afterwards.
	taken, err := h.identity.EmailExists(ctx, "owner@acme.test")
	require.NoError(t, err)
	require.False(t, taken)
	exists, err := h.directory.Exists(ctx, "acme")
	require.NoError(t, err)
	require.False(t, exists)
}

type failingAccess struct{}

func (failingAccess) AssignRole(context.Context, tenant.Space, acsvc.AssignRoleInput) (bool, error) {
	return false, errors.New("seed failed")
}

func TestRegisterOwnerGrantFailureCompensatesAll(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{access: failingAccess{}})

	_, err := h.svc.Register(ctx, validInput())
	require.Error(t, err)

	taken, err := h.identity.EmailExists(ctx, "owner@acme.test")
	require.NoError(t, err)
	require.False(t, taken)
	exists, err := h.directory.Exists(ctx, "acme")
	require.NoError(t, err)
	require.False(t, exists)
	// The partition itself was torn down.
	require.Contains(t, h.prov.tornDown, "acme")
}

func TestRegistrationsAreIsolated(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, harnessOpts{})

	resA, err := h.svc.Register(ctx, validInput())
	require.NoError(t, err)

	inB := service.RegisterInput{
		SchoolName:   "Borealis High",
		PartitionKey: "borealis",
		Email:        "head@borealis.test",
		Password:     "another-pass",
		FirstName:    "Nils",
		LastName:     "Abel",
	}
	resB, err := h.svc.Register(ctx, inB)
	require.NoError(t, err)

	// Each owner only has a role in their own partition.
	heldA, err := h.access.ActiveRoles(ctx, resB.Tenant.Space(), resA.User.ID)
	require.NoError(t, err)
	require.Empty(t, heldA)
	heldB, err := h.access.ActiveRoles(ctx, resB.Tenant.Space(), resB.User.ID)
	require.NoError(t, err)
	require.Len(t, heldB, 1)

	// The first owner's profile exists only in their own partition.
	_, err = h.profiles.StaffByUser(ctx, resB.Tenant.Space(), resA.User.ID)
	require.ErrorIs(t, err, profilesvc.ErrNotFound)
	_, err = h.profiles.StaffByUser(ctx, resA.Tenant.Space(), resA.User.ID)
	require.NoError(t, err)
}

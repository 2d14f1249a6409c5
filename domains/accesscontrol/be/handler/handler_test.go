package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edusekai/school-saas/domains/accesscontrol/be/handler"
	"github.com/edusekai/school-saas/domains/accesscontrol/be/repo"
	"github.com/edusekai/school-saas/domains/accesscontrol/be/service"
	profilesrepo "github.com/edusekai/school-saas/domains/profiles/be/repo"
	profilesvc "github.com/edusekai/school-saas/domains/profiles/be/service"
	"github.com/edusekai/school-saas/platform/go/auth"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

type openDirectory struct{}

func (openDirectory) Exists(context.Context, uuid.UUID) (bool, error) { return true, nil }

type env struct {
	router *chi.Mux
	svc    *service.Service
	space  tenant.Space
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zap.NewNop()
	store := repo.NewMemoryStore(profilesrepo.NewMemoryRepository())
	svc := service.New(service.Config{
		Store:       store,
		Users:       openDirectory{},
		Provisioner: profilesvc.NewProvisioner(profilesvc.ProvisionerConfig{Logger: logger}),
		Logger:      logger,
	})
	h := handler.New(svc, service.NewResolver(store, logger), logger)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(h.RequirePermission("view_role"))
		r.Get("/roles", h.ListRoles)
	})
	router.Group(func(r chi.Router) {
		r.Use(h.RequirePermission("edit_role"))
		r.Post("/user-roles", h.AssignRole)
	})

	return &env{
		router: router,
		svc:    svc,
		space: tenant.Space{
			TenantID:     uuid.New(),
			Name:         "Acme Academy",
			PartitionKey: "acme",
			SchemaName:   "acme",
		},
	}
}

func (e *env) do(t *testing.T, method, path string, id *auth.Identity, space *tenant.Space, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	ctx := req.Context()
	if id != nil {
		ctx = auth.WithIdentity(ctx, *id)
	}
	if space != nil {
		ctx = tenant.WithSpace(ctx, *space)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestGuardRejectsAnonymous(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/roles", nil, &e.space, "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardRejectsSharedHost(t *testing.T) {
	e := newEnv(t)
	id := auth.Identity{UserID: uuid.New()}
	shared := tenant.Space{SchemaName: tenant.SharedSchema}
	rec := e.do(t, http.MethodGet, "/roles", &id, &shared, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuardDeniesWithoutPermission(t *testing.T) {
	e := newEnv(t)
	id := auth.Identity{UserID: uuid.New()}
	rec := e.do(t, http.MethodGet, "/roles", &id, &e.space, "", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuardAllowsGrantedRole(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	_, err := e.svc.AssignRole(context.Background(), e.space, service.AssignRoleInput{
		UserID:   userID,
		RoleSlug: service.RoleStaff,
	})
	require.NoError(t, err)

	id := auth.Identity{UserID: userID}
	rec := e.do(t, http.MethodGet, "/roles", &id, &e.space, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"slug":"owner"`)
}

func TestGuardHonoursRoleHintHeader(t *testing.T) {
	e := newEnv(t)
	userID := uuid.New()
	_, err := e.svc.AssignRole(context.Background(), e.space, service.AssignRoleInput{
		UserID:   userID,
		RoleSlug: service.RoleStaff,
	})
	require.NoError(t, err)

	id := auth.Identity{UserID: userID}
	rec := e.do(t, http.MethodGet, "/roles", &id, &e.space, "", map[string]string{
		handler.RoleHintHeader: service.RoleOwner,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAssignRoleEndpoint(t *testing.T) {
	e := newEnv(t)
	adminID := uuid.New()
	_, err := e.svc.AssignRole(context.Background(), e.space, service.AssignRoleInput{
		UserID:   adminID,
		RoleSlug: service.RoleOwner,
	})
	require.NoError(t, err)

	id := auth.Identity{UserID: adminID}
	body := `{"userId":"` + uuid.NewString() + `","roleSlug":"student","firstName":"Alan"}`
	rec := e.do(t, http.MethodPost, "/user-roles", &id, &e.space, body, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.do(t, http.MethodPost, "/user-roles", &id, &e.space, `{"userId":"nope","roleSlug":"student"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/user-roles", &id, &e.space, `{"userId":"`+uuid.NewString()+`","roleSlug":"warden"}`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

package tenant_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/edusekai/school-saas/platform/go/tenant"
)

type stubResolver struct {
	spaces map[string]tenant.Space
	err    error
}

func (r *stubResolver) SpaceForHostname(_ context.Context, hostname string) (tenant.Space, error) {
	if r.err != nil {
		return tenant.Space{}, r.err
	}
	space, ok := r.spaces[hostname]
	if !ok {
		return tenant.Space{}, tenant.ErrUnknownHost
	}
	return space, nil
}

func bindThrough(t *testing.T, resolver tenant.SpaceResolver, host string) (*httptest.ResponseRecorder, tenant.Space, bool) {
	t.Helper()
	var bound tenant.Space
	var ok bool
	mw := tenant.Binder(tenant.BinderConfig{
		Resolver:    resolver,
		SharedHosts: []string{"edusekai.io", "localhost"},
	})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bound, ok = tenant.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = host
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, bound, ok
}

func TestBinderBindsTenantSpace(t *testing.T) {
	space := tenant.Space{
		TenantID:     uuid.New(),
		Name:         "Acme Academy",
		PartitionKey: "acme",
		SchemaName:   "acme",
	}
	resolver := &stubResolver{spaces: map[string]tenant.Space{"acme.edusekai.io": space}}

	rec, bound, ok := bindThrough(t, resolver, "acme.edusekai.io")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	require.Equal(t, space, bound)
}

func TestBinderStripsPortAndCase(t *testing.T) {
	space := tenant.Space{TenantID: uuid.New(), PartitionKey: "acme", SchemaName: "acme"}
	resolver := &stubResolver{spaces: map[string]tenant.Space{"acme.edusekai.io": space}}

	rec, bound, ok := bindThrough(t, resolver, "Acme.EduSekai.io:8443")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	require.Equal(t, "acme", bound.PartitionKey)
}

func TestBinderBindsSharedHost(t *testing.T) {
	resolver := &stubResolver{spaces: map[string]tenant.Space{}}

	rec, bound, ok := bindThrough(t, resolver, "edusekai.io")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, ok)
	require.True(t, bound.IsShared())
}

func TestBinderRejectsUnknownHost(t *testing.T) {
	resolver := &stubResolver{spaces: map[string]tenant.Space{}}

	rec, _, ok := bindThrough(t, resolver, "ghost.edusekai.io")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, ok)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestBinderFailsClosedOnResolverError(t *testing.T) {
	resolver := &stubResolver{err: errors.New("directory down")}

	rec, _, ok := bindThrough(t, resolver, "acme.edusekai.io")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.False(t, ok)
}

package tenant

import (
	"context"

	"github.com/google/uuid"
)

// SharedSchema is the single shared partition holding the identity store and
// tenant directory. It is never selected implicitly; callers must reach it
// through persistence.TenantDB.WithShared.
const SharedSchema = "public"

// Space captures the resolved partition binding for one logical operation.
// It is attached to the context by the request binder once the tenant has been
// resolved from the request hostname, and travels with the request so that
// concurrent operations for different tenants never observe each other's
// binding.
type Space struct {
	TenantID     uuid.UUID
	Name         string
	PartitionKey string
	SchemaName   string
}

// IsShared reports whether the space points at the shared partition.
func (s Space) IsShared() bool {
	return s.SchemaName == "" || s.SchemaName == SharedSchema
}

type ctxKey string

const spaceKey ctxKey = "EDUSEKAI_TENANT_SPACE"

// WithSpace returns a derived context carrying the tenant Space.
func WithSpace(ctx context.Context, space Space) context.Context {
	return context.WithValue(ctx, spaceKey, space)
}

// FromContext extracts the tenant Space and a boolean indicating presence.
func FromContext(ctx context.Context) (Space, bool) {
	v := ctx.Value(spaceKey)
	if v == nil {
		return Space{}, false
	}

	space, ok := v.(Space)
	return space, ok
}

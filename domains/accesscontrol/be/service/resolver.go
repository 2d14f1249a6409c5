package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/edusekai/school-saas/platform/go/auth"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// Resolver answers yes-or-no permission questions. It never returns an
// error: storage failures are logged and treated as a denial.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

func NewResolver(store Store, logger *zap.Logger) *Resolver {
	if store == nil {
		panic("accesscontrol: store is required")
	}
	if logger == nil {
		panic("accesscontrol: logger is required")
	}
	return &Resolver{store: store, logger: logger}
}

// Authorize reports whether the identity may perform the action named by the
// permission codename within the bound tenant.
//
// With an empty role hint, any active role granting the permission suffices.
// A non-empty hint restricts the check to that single role: hinting a role
// the user does not hold denies, even when another held role would grant the
// permission. Owners pass every check, as do platform superusers.
func (r *Resolver) Authorize(ctx context.Context, id auth.Identity, space tenant.Space, codename, roleHint string) bool {
	if id.IsSuperuser {
		return true
	}
	if space.IsShared() {
		return false
	}

	var held []HeldRole
	err := r.store.InTenant(ctx, space, func(ctx context.Context, tx Tx) error {
		var err error
		held, err = tx.ActiveRoles(ctx, id.UserID, space.TenantID)
		return err
	})
	if err != nil {
		// Fail closed.
		r.logger.Warn("permission check failed, denying",
			zap.String("user_id", id.UserID.String()),
			zap.String("tenant", space.PartitionKey),
			zap.String("permission", codename),
			zap.Error(err))
		return false
	}

	candidates := held
	if roleHint != "" {
		candidates = nil
		for _, h := range held {
			if h.Slug == roleHint {
				candidates = []HeldRole{h}
				break
			}
		}
		if candidates == nil {
			return false
		}
	}

	for _, h := range candidates {
		if h.Slug == RoleOwner {
			return true
		}
		for _, p := range h.Permissions {
			if p == codename {
				return true
			}
		}
	}
	return false
}

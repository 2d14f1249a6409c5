package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	profilesrepo "github.com/edusekai/school-saas/domains/profiles/be/repo"
	profilesvc "github.com/edusekai/school-saas/domains/profiles/be/service"

	"github.com/edusekai/school-saas/domains/accesscontrol/be/service"
	"github.com/edusekai/school-saas/platform/go/persistence"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// PostgresStore implements service.Store on a tenant-partitioned database.
type PostgresStore struct {
	db *persistence.TenantDB
}

func NewPostgresStore(db *persistence.TenantDB) *PostgresStore {
	if db == nil {
		panic("accesscontrol: tenant db is required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InTenant(ctx context.Context, space tenant.Space, fn func(ctx context.Context, tx service.Tx) error) error {
	return s.db.WithTenant(ctx, space, func(tx pgx.Tx) error {
		return fn(ctx, &postgresTx{tx: tx})
	})
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) EnsureSeeded(ctx context.Context) error {
	for _, p := range service.Catalogue() {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO permissions (codename, name, module, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (codename) DO NOTHING`,
			p.Codename, p.Name, p.Module, p.Description); err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Codename, err)
		}
	}

	for _, r := range service.SystemRoles() {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO roles (slug, name, description, is_system_role)
			VALUES ($1, $2, $3, TRUE)
			ON CONFLICT (slug) DO NOTHING`,
			r.Slug, r.Name, r.Description); err != nil {
			return fmt.Errorf("seed role %s: %w", r.Slug, err)
		}
		for _, codename := range r.Permissions {
			if _, err := t.tx.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission_id)
				SELECT r.role_id, p.permission_id
				FROM roles r, permissions p
				WHERE r.slug = $1 AND p.codename = $2
				ON CONFLICT DO NOTHING`,
				r.Slug, codename); err != nil {
				return fmt.Errorf("seed grant %s/%s: %w", r.Slug, codename, err)
			}
		}
	}

	// The owner role always carries the full catalogue.
	if _, err := t.tx.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT r.role_id, p.permission_id
		FROM roles r, permissions p
		WHERE r.slug = $1
		ON CONFLICT DO NOTHING`, service.RoleOwner); err != nil {
		return fmt.Errorf("seed owner grants: %w", err)
	}
	return nil
}

func (t *postgresTx) RoleBySlug(ctx context.Context, slug string) (service.Role, error) {
	var r service.Role
	row := t.tx.QueryRow(ctx, `
		SELECT role_id, slug, name, description, is_system_role, created_at
		FROM roles WHERE slug = $1`, slug)
	if err := row.Scan(&r.RoleID, &r.Slug, &r.Name, &r.Description, &r.IsSystemRole, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Role{}, service.ErrRoleNotFound
		}
		return service.Role{}, fmt.Errorf("role by slug: %w", err)
	}
	return r, nil
}

func (t *postgresTx) UpsertUserRole(ctx context.Context, userID, tenantID, roleID uuid.UUID) (bool, error) {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, tenant_id, role_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, tenant_id, role_id) DO NOTHING`,
		userID, tenantID, roleID)
	if err != nil {
		return false, fmt.Errorf("upsert user role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (t *postgresTx) ActiveRoles(ctx context.Context, userID, tenantID uuid.UUID) ([]service.HeldRole, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT r.role_id, r.slug, r.name,
		       COALESCE(array_agg(p.codename) FILTER (WHERE p.codename IS NOT NULL), '{}')
		FROM user_roles ur
		JOIN roles r ON r.role_id = ur.role_id
		LEFT JOIN role_permissions rp ON rp.role_id = r.role_id
		LEFT JOIN permissions p ON p.permission_id = rp.permission_id
		WHERE ur.user_id = $1 AND ur.tenant_id = $2 AND ur.is_active
		GROUP BY r.role_id, r.slug, r.name
		ORDER BY r.slug`, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("active roles: %w", err)
	}
	defer rows.Close()

	var held []service.HeldRole
	for rows.Next() {
		var h service.HeldRole
		if err := rows.Scan(&h.RoleID, &h.Slug, &h.Name, &h.Permissions); err != nil {
			return nil, fmt.Errorf("scan held role: %w", err)
		}
		held = append(held, h)
	}
	return held, rows.Err()
}

func (t *postgresTx) ListRoles(ctx context.Context) ([]service.RoleWithPermissions, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT r.role_id, r.slug, r.name, r.description, r.is_system_role, r.created_at,
		       COALESCE(array_agg(p.codename) FILTER (WHERE p.codename IS NOT NULL), '{}')
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.role_id
		LEFT JOIN permissions p ON p.permission_id = rp.permission_id
		GROUP BY r.role_id, r.slug, r.name, r.description, r.is_system_role, r.created_at
		ORDER BY r.slug`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var out []service.RoleWithPermissions
	for rows.Next() {
		var r service.RoleWithPermissions
		if err := rows.Scan(&r.RoleID, &r.Slug, &r.Name, &r.Description, &r.IsSystemRole, &r.CreatedAt, &r.Permissions); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *postgresTx) Profiles() profilesvc.Writes {
	return profilesrepo.NewTxWrites(t.tx)
}

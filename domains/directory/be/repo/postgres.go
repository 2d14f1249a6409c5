package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edusekai/school-saas/domains/directory/be/service"
	"github.com/edusekai/school-saas/platform/go/persistence"
)

const (
	tenantsTable = "tenants"
	domainsTable = "domains"
)

// PostgresRepository stores the tenant directory in the shared partition.
type PostgresRepository struct {
	db *persistence.TenantDB
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(db *persistence.TenantDB) *PostgresRepository {
	if db == nil {
		panic("directory repo requires tenant db")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateTenant(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	var out service.Tenant
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (tenant_id, name, partition_key, is_active, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING tenant_id, name, partition_key, is_active, created_at, updated_at
        `, tenantsTable),
			t.ID, t.Name, t.PartitionKey, t.IsActive, t.CreatedAt, t.UpdatedAt,
		)
		var scanErr error
		out, scanErr = scanTenant(row)
		return scanErr
	})
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return service.Tenant{}, service.ErrPartitionKeyTaken
		}
		return service.Tenant{}, err
	}
	return out, nil
}

func (r *PostgresRepository) GetTenant(ctx context.Context, id uuid.UUID) (service.Tenant, error) {
	var out service.Tenant
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT tenant_id, name, partition_key, is_active, created_at, updated_at
            FROM %s WHERE tenant_id = $1
        `, tenantsTable), id)
		var scanErr error
		out, scanErr = scanTenant(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Tenant{}, service.ErrNotFound
		}
		return service.Tenant{}, err
	}
	return out, nil
}

func (r *PostgresRepository) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	// Domains cascade via foreign key.
	return r.db.WithShared(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE tenant_id = $1`, tenantsTable), id)
		if err != nil {
			return fmt.Errorf("delete tenant: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return service.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresRepository) SetTenantActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithShared(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(
			`UPDATE %s SET is_active = $1, updated_at = NOW() WHERE tenant_id = $2`, tenantsTable,
		), active, id)
		if err != nil {
			return fmt.Errorf("update tenant: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return service.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresRepository) PartitionKeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, fmt.Sprintf(
			`SELECT EXISTS (SELECT 1 FROM %s WHERE partition_key = $1)`, tenantsTable,
		), key).Scan(&exists)
	})
	return exists, err
}

func (r *PostgresRepository) CreateDomain(ctx context.Context, d service.Domain) (service.Domain, error) {
	var out service.Domain
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (hostname, tenant_id, is_primary, created_at)
            VALUES ($1, $2, $3, $4)
            RETURNING hostname, tenant_id, is_primary, created_at
        `, domainsTable),
			d.Hostname, d.TenantID, d.IsPrimary, d.CreatedAt,
		)
		return row.Scan(&out.Hostname, &out.TenantID, &out.IsPrimary, &out.CreatedAt)
	})
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return service.Domain{}, service.ErrHostnameTaken
		}
		return service.Domain{}, err
	}
	return out, nil
}

func (r *PostgresRepository) FindTenantByHostname(ctx context.Context, hostname string) (service.Tenant, error) {
	var out service.Tenant
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT t.tenant_id, t.name, t.partition_key, t.is_active, t.created_at, t.updated_at
            FROM %s d JOIN %s t ON t.tenant_id = d.tenant_id
            WHERE LOWER(d.hostname) = LOWER($1)
        `, domainsTable, tenantsTable), hostname)
		var scanErr error
		out, scanErr = scanTenant(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.Tenant{}, service.ErrNotFound
		}
		return service.Tenant{}, err
	}
	return out, nil
}

func (r *PostgresRepository) HostnameExists(ctx context.Context, hostname string) (bool, error) {
	var exists bool
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, fmt.Sprintf(
			`SELECT EXISTS (SELECT 1 FROM %s WHERE LOWER(hostname) = LOWER($1))`, domainsTable,
		), hostname).Scan(&exists)
	})
	return exists, err
}

func scanTenant(row pgx.Row) (service.Tenant, error) {
	var t service.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.PartitionKey, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return service.Tenant{}, err
	}
	return t, nil
}

var _ service.Repository = (*PostgresRepository)(nil)

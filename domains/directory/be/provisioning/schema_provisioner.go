package provisioning

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/edusekai/school-saas/database"
	"github.com/edusekai/school-saas/domains/directory/be/service"
	"github.com/edusekai/school-saas/platform/go/persistence"
)

// SchemaProvisioner creates and drops per-tenant Postgres schemas and applies
// the tenant DDL (access control plus profile tables) inside them.
type SchemaProvisioner struct {
	pool *pgxpool.Pool
}

func NewSchemaProvisioner(pool *pgxpool.Pool) *SchemaProvisioner {
	if pool == nil {
		panic("schema provisioner requires pool")
	}
	return &SchemaProvisioner{pool: pool}
}

// Ensure creates the schema and its base tables in one transaction. The
// schema create is not IF NOT EXISTS on purpose: partition keys are claimed
// exactly once and never reused, so an existing schema means something went
// wrong and the error should surface rather than be papered over.
func (p *SchemaProvisioner) Ensure(ctx context.Context, schemaName string) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schemaName}.Sanitize()); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, schemaName); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	for _, asset := range sqlassets.TenantStatements() {
		for _, stmt := range persistence.SplitStatements(asset) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply tenant ddl: %w", err)
			}
		}
	}

	return tx.Commit(ctx)
}

// Teardown drops the schema and everything in it. Reserved for the
// registration compensation path; normal deactivation never drops partitions.
func (p *SchemaProvisioner) Teardown(ctx context.Context, schemaName string) error {
	drop := "DROP SCHEMA IF EXISTS " + pgx.Identifier{schemaName}.Sanitize() + " CASCADE"
	if _, err := p.pool.Exec(ctx, drop); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

var _ service.Provisioner = (*SchemaProvisioner)(nil)

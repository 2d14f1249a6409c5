package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/edusekai/school-saas/database"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// BootstrapSharedSchema applies the shared-partition DDL (users, tenants,
// domains) in a single transaction with search_path bound to the shared
// schema. SQL is embedded at build time so binaries stay self-contained. The
// helper is idempotent and intended for CLI bootstrap and tests.
func BootstrapSharedSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap shared schema: pool is required")
	}

	var statements []string
	for _, asset := range sqlassets.SharedStatements() {
		statements = append(statements, SplitStatements(asset)...)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, tenant.SharedSchema); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// SplitStatements breaks an embedded SQL asset into individual statements so
// they can run over the extended protocol. Good enough for our DDL: the assets
// contain no string literals with semicolons.
func SplitStatements(sql string) []string {
	parts := strings.Split(sql, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		stmt := strings.TrimSpace(part)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edusekai/school-saas/platform/go/tenant"
)

// txBeginner exposes the minimal pgx pool behaviour needed by TenantDB.
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TenantDB scopes every query to one partition by opening a transaction and
// setting search_path locally on it. The binding lives and dies with the
// transaction, so it is per logical operation: two concurrent requests for
// different tenants each hold their own transaction and cannot observe each
// other's binding. Re-entering WithTenant (or WithShared) from inside a
// callback opens an inner scoped transaction and leaves the outer binding
// untouched, which is how cross-partition flows such as registration nest.
type TenantDB struct {
	pool         txBeginner
	sharedSchema string
}

type TenantDBConfig struct {
	Pool *pgxpool.Pool
	// SharedSchema defaults to tenant.SharedSchema when empty.
	SharedSchema string
}

func NewTenantDB(cfg TenantDBConfig) *TenantDB {
	if cfg.Pool == nil {
		panic("TenantDB requires pool")
	}

	shared := cfg.SharedSchema
	if shared == "" {
		shared = tenant.SharedSchema
	}
	return &TenantDB{pool: cfg.Pool, sharedSchema: shared}
}

// WithShared executes fn inside a transaction scoped to the shared partition.
// The shared partition is never selected implicitly; global operations (the
// identity store, the tenant directory) must opt in here.
func (db *TenantDB) WithShared(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return db.run(ctx, db.sharedSchema, fn)
}

// WithTenant executes fn inside a transaction with search_path bound to the
// tenant's partition. The shared schema is deliberately excluded from the
// search path: tenant-scoped code that needs shared rows must say so.
func (db *TenantDB) WithTenant(ctx context.Context, space tenant.Space, fn func(tx pgx.Tx) error) error {
	if space.IsShared() {
		return fmt.Errorf("tenant binding requires a tenant space, got shared")
	}
	return db.run(ctx, space.SchemaName, fn)
}

func (db *TenantDB) run(ctx context.Context, schema string, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	// Rollback on every exit path, including panics and context cancellation;
	// it is a no-op after a successful commit.
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, schema); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

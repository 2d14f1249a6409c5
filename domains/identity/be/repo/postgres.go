package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edusekai/school-saas/domains/identity/be/service"
	"github.com/edusekai/school-saas/platform/go/persistence"
)

const usersTable = "users"

// PostgresRepository stores users in the shared partition. Every method opens
// an explicit shared-partition binding; the shared schema is never on the
// search path by accident.
type PostgresRepository struct {
	db *persistence.TenantDB
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(db *persistence.TenantDB) *PostgresRepository {
	if db == nil {
		panic("identity repo requires tenant db")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, u service.User) (service.User, error) {
	var out service.User
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            INSERT INTO %s (user_id, email, password_hash, first_name, last_name, is_active, is_superuser, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
            RETURNING user_id, email, password_hash, first_name, last_name, is_active, is_superuser, created_at, updated_at
        `, usersTable),
			u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsActive, u.IsSuperuser, u.CreatedAt, u.UpdatedAt,
		)

		var scanErr error
		out, scanErr = scanUser(row)
		return scanErr
	})
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return service.User{}, service.ErrEmailTaken
		}
		return service.User{}, err
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (service.User, error) {
	var out service.User
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT user_id, email, password_hash, first_name, last_name, is_active, is_superuser, created_at, updated_at
            FROM %s WHERE user_id = $1
        `, usersTable), id)

		var scanErr error
		out, scanErr = scanUser(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.User{}, service.ErrNotFound
		}
		return service.User{}, err
	}
	return out, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (service.User, error) {
	var out service.User
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, fmt.Sprintf(`
            SELECT user_id, email, password_hash, first_name, last_name, is_active, is_superuser, created_at, updated_at
            FROM %s WHERE LOWER(email) = LOWER($1)
        `, usersTable), email)

		var scanErr error
		out, scanErr = scanUser(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return service.User{}, service.ErrNotFound
		}
		return service.User{}, err
	}
	return out, nil
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.WithShared(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, fmt.Sprintf(
			`SELECT EXISTS (SELECT 1 FROM %s WHERE LOWER(email) = LOWER($1))`, usersTable,
		), email).Scan(&exists)
	})
	return exists, err
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithShared(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, usersTable), id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return service.ErrNotFound
		}
		return nil
	})
}

func scanUser(row pgx.Row) (service.User, error) {
	var u service.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return service.User{}, err
	}
	return u, nil
}

var _ service.Repository = (*PostgresRepository)(nil)

package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edusekai/school-saas/domains/profiles/be/service"
	"github.com/edusekai/school-saas/platform/go/persistence"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// PostgresRepository reads profiles from the bound tenant partition.
type PostgresRepository struct {
	db *persistence.TenantDB
}

func NewPostgresRepository(db *persistence.TenantDB) *PostgresRepository {
	if db == nil {
		panic("profiles: tenant db is required")
	}
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) StaffByUser(ctx context.Context, space tenant.Space, userID uuid.UUID) (service.StaffProfile, error) {
	var p service.StaffProfile
	err := r.db.WithTenant(ctx, space, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT profile_id, user_id, first_name, last_name, employee_id, designation, department, created_at, updated_at
			FROM staff_profiles WHERE user_id = $1`, userID)
		return row.Scan(&p.ProfileID, &p.UserID, &p.FirstName, &p.LastName,
			&p.EmployeeID, &p.Designation, &p.Department, &p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		return service.StaffProfile{}, mapLookupErr(err)
	}
	return p, nil
}

func (r *PostgresRepository) InstructorByUser(ctx context.Context, space tenant.Space, userID uuid.UUID) (service.InstructorProfile, error) {
	var p service.InstructorProfile
	err := r.db.WithTenant(ctx, space, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT profile_id, user_id, first_name, last_name, employee_id, created_at, updated_at
			FROM instructor_profiles WHERE user_id = $1`, userID)
		return row.Scan(&p.ProfileID, &p.UserID, &p.FirstName, &p.LastName,
			&p.EmployeeID, &p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		return service.InstructorProfile{}, mapLookupErr(err)
	}
	return p, nil
}

func (r *PostgresRepository) StudentByUser(ctx context.Context, space tenant.Space, userID uuid.UUID) (service.StudentProfile, error) {
	var p service.StudentProfile
	err := r.db.WithTenant(ctx, space, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT profile_id, user_id, first_name, last_name, enrollment_id, created_at, updated_at
			FROM student_profiles WHERE user_id = $1`, userID)
		return row.Scan(&p.ProfileID, &p.UserID, &p.FirstName, &p.LastName,
			&p.EnrollmentID, &p.CreatedAt, &p.UpdatedAt)
	})
	if err != nil {
		return service.StudentProfile{}, mapLookupErr(err)
	}
	return p, nil
}

func (r *PostgresRepository) Institution(ctx context.Context, space tenant.Space) (service.InstitutionProfile, error) {
	var p service.InstitutionProfile
	err := r.db.WithTenant(ctx, space, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT tenant_id, name, address, phone, email, updated_at
			FROM institution_profile LIMIT 1`)
		return row.Scan(&p.TenantID, &p.Name, &p.Address, &p.Phone, &p.Email, &p.UpdatedAt)
	})
	if err != nil {
		return service.InstitutionProfile{}, mapLookupErr(err)
	}
	return p, nil
}

func (r *PostgresRepository) UpdateInstitution(ctx context.Context, space tenant.Space, in service.UpdateInstitutionInput) (service.InstitutionProfile, error) {
	var p service.InstitutionProfile
	err := r.db.WithTenant(ctx, space, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE institution_profile SET
				name = COALESCE($1, name),
				address = COALESCE($2, address),
				phone = COALESCE($3, phone),
				email = COALESCE($4, email),
				updated_at = now()
			RETURNING tenant_id, name, address, phone, email, updated_at`,
			in.Name, in.Address, in.Phone, in.Email)
		return row.Scan(&p.TenantID, &p.Name, &p.Address, &p.Phone, &p.Email, &p.UpdatedAt)
	})
	if err != nil {
		return service.InstitutionProfile{}, mapLookupErr(err)
	}
	return p, nil
}

func mapLookupErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return service.ErrNotFound
	}
	return fmt.Errorf("profiles repository: %w", err)
}

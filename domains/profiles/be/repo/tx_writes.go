package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edusekai/school-saas/domains/profiles/be/service"
)

// TxWrites implements service.Writes on an already bound transaction. It is
// handed out by stores that need profile creation to commit atomically with
// their own rows, the role assignment path in particular.
type TxWrites struct {
	tx pgx.Tx
}

func NewTxWrites(tx pgx.Tx) *TxWrites {
	return &TxWrites{tx: tx}
}

func (w *TxWrites) EnsureInstitution(ctx context.Context, seed service.InstitutionSeed) (bool, error) {
	tag, err := w.tx.Exec(ctx, `
		INSERT INTO institution_profile (tenant_id, name, address, phone, email)
		VALUES ($1, $2, '', '', '')
		ON CONFLICT (tenant_id) DO NOTHING`,
		seed.TenantID, seed.Name)
	if err != nil {
		return false, fmt.Errorf("insert institution profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (w *TxWrites) EnsureStaff(ctx context.Context, seed service.StaffSeed) (bool, error) {
	tag, err := w.tx.Exec(ctx, `
		INSERT INTO staff_profiles (profile_id, user_id, first_name, last_name, employee_id, designation, department)
		VALUES ($1, $2, $3, $4, $5, $6, '')
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), seed.UserID, seed.FirstName, seed.LastName, seed.EmployeeID, seed.Designation)
	if err != nil {
		return false, fmt.Errorf("insert staff profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (w *TxWrites) EnsureInstructor(ctx context.Context, seed service.InstructorSeed) (bool, error) {
	tag, err := w.tx.Exec(ctx, `
		INSERT INTO instructor_profiles (profile_id, user_id, first_name, last_name, employee_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), seed.UserID, seed.FirstName, seed.LastName, seed.EmployeeID)
	if err != nil {
		return false, fmt.Errorf("insert instructor profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (w *TxWrites) EnsureStudent(ctx context.Context, seed service.StudentSeed) (bool, error) {
	tag, err := w.tx.Exec(ctx, `
		INSERT INTO student_profiles (profile_id, user_id, first_name, last_name, enrollment_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), seed.UserID, seed.FirstName, seed.LastName, seed.EnrollmentID)
	if err != nil {
		return false, fmt.Errorf("insert student profile: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

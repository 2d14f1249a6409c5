package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Errors returned by the service layer.
var (
	ErrNotFound     = errors.New("profile not found")
	ErrInconsistent = errors.New("role assignment has no matching profile")
)

// Kind identifies a profile family. A user's effective profile in a tenant is
// resolved in a fixed priority order: staff first, then instructor, then
// student.
type Kind string

const (
	KindStaff      Kind = "staff"
	KindInstructor Kind = "instructor"
	KindStudent    Kind = "student"
)

// kindPriority is the resolution order for users holding several profiles.
var kindPriority = []Kind{KindStaff, KindInstructor, KindStudent}

// StaffProfile covers both owners and non-teaching staff.
type StaffProfile struct {
	ProfileID   uuid.UUID
	UserID      uuid.UUID
	FirstName   string
	LastName    string
	EmployeeID  string
	Designation string
	Department  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type InstructorProfile struct {
	ProfileID  uuid.UUID
	UserID     uuid.UUID
	FirstName  string
	LastName   string
	EmployeeID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type StudentProfile struct {
	ProfileID    uuid.UUID
	UserID       uuid.UUID
	FirstName    string
	LastName     string
	EnrollmentID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InstitutionProfile is the single per-tenant school record, created exactly
// once at tenant registration.
type InstitutionProfile struct {
	TenantID  uuid.UUID
	Name      string
	Address   string
	Phone     string
	Email     string
	UpdatedAt time.Time
}

// Resolved is the tagged union produced by profile lookup: exactly one of the
// pointers matching Kind is set.
type Resolved struct {
	Kind       Kind
	Staff      *StaffProfile
	Instructor *InstructorProfile
	Student    *StudentProfile
}

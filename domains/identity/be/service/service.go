package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edusekai/school-saas/platform/go/auth"
)

// Errors returned by the service layer.
var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDisabled           = errors.New("user account is disabled")
)

// User is a global identity. It lives in the shared partition and is
// referenced by id from every tenant partition; that cross-partition reference
// is an application invariant, not a storage-enforced foreign key.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	IsActive     bool
	IsSuperuser  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity converts the stored user into the context-carried form.
func (u User) Identity() auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, IsSuperuser: u.IsSuperuser}
}

// CreateInput represents the request to create a user.
type CreateInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Repository abstracts persistence over the shared partition.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service provides identity store operations.
type Service struct {
	repo Repository
}

// New constructs a Service with required dependencies.
func New(repo Repository) *Service {
	if repo == nil {
		panic("identity repo is required")
	}
	return &Service{repo: repo}
}

// Create registers a new global user. The email is unique across the whole
// platform, not per tenant.
func (s *Service) Create(ctx context.Context, input CreateInput) (User, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return User{}, errors.New("email is required")
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	u := User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return s.repo.Create(ctx, u)
}

// Authenticate verifies credentials and returns the matching active user.
// Unknown email and wrong password both map to ErrInvalidCredentials so the
// response does not reveal which one it was.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("look up user: %w", err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return User{}, ErrDisabled
	}

	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether a user id is present in the shared partition.
// Tenant-side stores call this before writing a user id into their own
// partition.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// EmailExists reports whether the email is already registered. Used by the
// registration orchestrator's pre-flight validation and by the write-time
// cross-partition reference check.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.EmailExists(ctx, NormalizeEmail(email))
}

// Delete removes a user. Only the registration orchestrator's compensation
// path calls this; normal deactivation is a soft flag.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// NormalizeEmail lowercases and trims an email for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

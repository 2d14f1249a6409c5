package handler

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/edusekai/school-saas/domains/profiles/be/service"
	"github.com/edusekai/school-saas/platform/go/auth"
	"github.com/edusekai/school-saas/platform/go/httpapi"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("profiles: service is required")
	}
	if logger == nil {
		panic("profiles: logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type profileResponse struct {
	Kind         string `json:"kind"`
	ProfileID    string `json:"profileId"`
	UserID       string `json:"userId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmployeeID   string `json:"employeeId,omitempty"`
	EnrollmentID string `json:"enrollmentId,omitempty"`
	Designation  string `json:"designation,omitempty"`
	Department   string `json:"department,omitempty"`
}

// MyProfile answers GET /me/profile with the caller's highest-priority
// profile in the bound tenant.
func (h *Handler) MyProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, httpapi.TypeUnauthenticated, "Authentication required", "")
		return
	}
	space, ok := tenant.FromContext(r.Context())
	if !ok || space.IsShared() {
		httpapi.Error(w, http.StatusNotFound, httpapi.TypeNotFound, "No tenant bound", "")
		return
	}

	resolved, err := h.svc.MyProfile(r.Context(), space, id.UserID)
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpapi.Error(w, http.StatusNotFound, httpapi.TypeNotFound, "No profile in this tenant", "")
	case err != nil:
		httpapi.Internal(w, h.logger, "resolve profile", err)
	default:
		httpapi.JSON(w, http.StatusOK, toResponse(resolved))
	}
}

func toResponse(resolved service.Resolved) profileResponse {
	switch resolved.Kind {
	case service.KindStaff:
		p := resolved.Staff
		return profileResponse{
			Kind:        string(service.KindStaff),
			ProfileID:   p.ProfileID.String(),
			UserID:      p.UserID.String(),
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			EmployeeID:  p.EmployeeID,
			Designation: p.Designation,
			Department:  p.Department,
		}
	case service.KindInstructor:
		p := resolved.Instructor
		return profileResponse{
			Kind:       string(service.KindInstructor),
			ProfileID:  p.ProfileID.String(),
			UserID:     p.UserID.String(),
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			EmployeeID: p.EmployeeID,
		}
	default:
		p := resolved.Student
		return profileResponse{
			Kind:         string(service.KindStudent),
			ProfileID:    p.ProfileID.String(),
			UserID:       p.UserID.String(),
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			EnrollmentID: p.EnrollmentID,
		}
	}
}

type institutionResponse struct {
	TenantID  string    `json:"tenantId"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Institution answers GET /institution. Route-level guards enforce the
// view_institution_profile permission.
func (h *Handler) Institution(w http.ResponseWriter, r *http.Request) {
	space, _ := tenant.FromContext(r.Context())
	inst, err := h.svc.Institution(r.Context(), space)
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpapi.Error(w, http.StatusNotFound, httpapi.TypeNotFound, "Institution profile not found", "")
	case err != nil:
		httpapi.Internal(w, h.logger, "get institution", err)
	default:
		httpapi.JSON(w, http.StatusOK, toInstitutionResponse(inst))
	}
}

type updateInstitutionRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
}

// UpdateInstitution answers PATCH /institution. Route-level guards enforce
// the edit_institution_profile permission.
func (h *Handler) UpdateInstitution(w http.ResponseWriter, r *http.Request) {
	var req updateInstitutionRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}
	if req.Name != nil && *req.Name == "" {
		httpapi.Error(w, http.StatusBadRequest, httpapi.TypeValidation, "Name cannot be empty", "")
		return
	}

	space, _ := tenant.FromContext(r.Context())
	inst, err := h.svc.UpdateInstitution(r.Context(), space, service.UpdateInstitutionInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	})
	switch {
	case errors.Is(err, service.ErrNotFound):
		httpapi.Error(w, http.StatusNotFound, httpapi.TypeNotFound, "Institution profile not found", "")
	case err != nil:
		httpapi.Internal(w, h.logger, "update institution", err)
	default:
		httpapi.JSON(w, http.StatusOK, toInstitutionResponse(inst))
	}
}

func toInstitutionResponse(inst service.InstitutionProfile) institutionResponse {
	return institutionResponse{
		TenantID:  inst.TenantID.String(),
		Name:      inst.Name,
		Address:   inst.Address,
		Phone:     inst.Phone,
		Email:     inst.Email,
		UpdatedAt: inst.UpdatedAt,
	}
}

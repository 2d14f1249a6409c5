package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edusekai/school-saas/domains/accesscontrol/be/service"
	"github.com/edusekai/school-saas/platform/go/auth"
	"github.com/edusekai/school-saas/platform/go/httpapi"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

// RoleHintHeader lets a client holding several roles name the one a request
// acts under.
const RoleHintHeader = "X-Active-Role"

type Handler struct {
	svc      *service.Service
	resolver *service.Resolver
	logger   *zap.Logger
}

func New(svc *service.Service, resolver *service.Resolver, logger *zap.Logger) *Handler {
	if svc == nil || resolver == nil {
		panic("accesscontrol: service and resolver are required")
	}
	if logger == nil {
		panic("accesscontrol: logger is required")
	}
	return &Handler{svc: svc, resolver: resolver, logger: logger}
}

// RequirePermission guards a route: the caller must be authenticated, bound
// to a tenant partition, and authorized for the given permission codename.
func (h *Handler) RequirePermission(codename string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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
			if !h.resolver.Authorize(r.Context(), id, space, codename, r.Header.Get(RoleHintHeader)) {
				httpapi.Error(w, http.StatusForbidden, httpapi.TypeForbidden, "Permission denied", "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type roleResponse struct {
	RoleID       string   `json:"roleId"`
	Slug         string   `json:"slug"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	IsSystemRole bool     `json:"isSystemRole"`
	Permissions  []string `json:"permissions"`
}

// ListRoles answers GET /roles.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	space, _ := tenant.FromContext(r.Context())
	roles, err := h.svc.ListRoles(r.Context(), space)
	if err != nil {
		httpapi.Internal(w, h.logger, "list roles", err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		perms := role.Permissions
		if perms == nil {
			perms = []string{}
		}
		out = append(out, roleResponse{
			RoleID:       role.RoleID.String(),
			Slug:         role.Slug,
			Name:         role.Name,
			Description:  role.Description,
			IsSystemRole: role.IsSystemRole,
			Permissions:  perms,
		})
	}
	httpapi.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

type assignRoleRequest struct {
	UserID      string `json:"userId"`
	RoleSlug    string `json:"roleSlug"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	EmployeeID  string `json:"employeeId"`
	Designation string `json:"designation"`
}

// AssignRole answers POST /user-roles.
func (h *Handler) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpapi.Error(w, http.StatusBadRequest, httpapi.TypeValidation, "Invalid user id", err.Error())
		return
	}
	if req.RoleSlug == "" {
		httpapi.Error(w, http.StatusBadRequest, httpapi.TypeValidation, "Role slug is required", "")
		return
	}

	space, _ := tenant.FromContext(r.Context())
	created, err := h.svc.AssignRole(r.Context(), space, service.AssignRoleInput{
		UserID:      userID,
		RoleSlug:    req.RoleSlug,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		EmployeeID:  req.EmployeeID,
		Designation: req.Designation,
	})
	switch {
	case errors.Is(err, service.ErrRoleNotFound):
		httpapi.Error(w, http.StatusNotFound, httpapi.TypeNotFound, "Role not found", "")
	case errors.Is(err, service.ErrUserNotFound):
		httpapi.Error(w, http.StatusNotFound, httpapi.TypeNotFound, "User not found", "")
	case err != nil:
		httpapi.Internal(w, h.logger, "assign role", err)
	default:
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		httpapi.JSON(w, status, map[string]any{"assigned": created})
	}
}

package handler

import (
	"errors"
	"net/http"
	"net/mail"

	"go.uber.org/zap"

	dirsvc "github.com/edusekai/school-saas/domains/directory/be/service"
	idsvc "github.com/edusekai/school-saas/domains/identity/be/service"
	"github.com/edusekai/school-saas/domains/onboarding/be/service"
	"github.com/edusekai/school-saas/platform/go/auth"
	"github.com/edusekai/school-saas/platform/go/httpapi"
	"github.com/edusekai/school-saas/platform/go/persistence"
)

type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("onboarding: service is required")
	}
	if logger == nil {
		panic("onboarding: logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

type registerRequest struct {
	SchoolName   string `json:"schoolName"`
	PartitionKey string `json:"partitionKey"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
}

type registerResponse struct {
	TenantID     string `json:"tenantId"`
	PartitionKey string `json:"partitionKey"`
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	EntryURL     string `json:"entryUrl"`
}

// Register answers POST /register on the shared host.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}
	if req.SchoolName == "" {
		httpapi.Error(w, http.StatusBadRequest, httpapi.TypeValidation, "School name is required", "")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		httpapi.Error(w, http.StatusBadRequest, httpapi.TypeValidation, "Invalid email address", "")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		httpapi.Error(w, http.StatusBadRequest, httpapi.TypeValidation, "Password too short", auth.ErrPasswordTooShort.Error())
		return
	}
	if _, err := persistence.NormalizePartitionKey(req.PartitionKey); err != nil {
		httpapi.Error(w, http.StatusBadRequest, httpapi.TypeValidation, "Invalid partition key", err.Error())
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		SchoolName:   req.SchoolName,
		PartitionKey: req.PartitionKey,
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	switch {
	case errors.Is(err, idsvc.ErrEmailTaken):
		httpapi.FieldConflict(w, "email", "Email is already registered")
	case errors.Is(err, dirsvc.ErrPartitionKeyTaken):
		httpapi.FieldConflict(w, "partitionKey", "Partition key is already taken")
	case errors.Is(err, dirsvc.ErrHostnameTaken):
		httpapi.FieldConflict(w, "partitionKey", "Domain is already taken")
	case errors.Is(err, dirsvc.ErrProvisioningFailed):
		httpapi.Error(w, http.StatusInternalServerError, httpapi.TypeProvisioning, "Partition provisioning failed", "")
	case err != nil:
		httpapi.Internal(w, h.logger, "register tenant", err)
	default:
		httpapi.JSON(w, http.StatusCreated, registerResponse{
			TenantID:     res.Tenant.ID.String(),
			PartitionKey: res.Tenant.PartitionKey,
			UserID:       res.User.ID.String(),
			Email:        res.User.Email,
			EntryURL:     res.EntryURL,
		})
	}
}

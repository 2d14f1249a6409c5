package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/edusekai/school-saas/domains/directory/be/service"
	"github.com/edusekai/school-saas/platform/go/httpapi"
	platformlogging "github.com/edusekai/school-saas/platform/go/logging"
)

// Handler exposes the public directory surface used by the onboarding UI.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("directory service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// CheckDomain answers pre-registration availability checks. The response is a
// bare exists flag; whether the match was exact or derived is not revealed.
func (h *Handler) CheckDomain(w http.ResponseWriter, r *http.Request) {
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		httpapi.Error(w, http.StatusBadRequest, httpapi.TypeValidation, "Missing parameter", "domain parameter is required")
		return
	}

	exists, err := h.svc.Exists(r.Context(), domain)
	if err != nil {
		httpapi.Internal(w, platformlogging.FromRequest(r, h.logger), "check domain", err)
		return
	}

	httpapi.JSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/edusekai/school-saas/domains/identity/be/service"
	"github.com/edusekai/school-saas/platform/go/auth"
	"github.com/edusekai/school-saas/platform/go/httpapi"
	platformlogging "github.com/edusekai/school-saas/platform/go/logging"
)

// Handler exposes the identity store's HTTP surface: login and "who am I".
type Handler struct {
	svc    *service.Service
	codec  *auth.TokenCodec
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, codec *auth.TokenCodec, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("identity service is required")
	}
	if codec == nil {
		panic("token codec is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, codec: codec, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	Email       string `json:"email"`
}

// Login verifies credentials against the shared partition and issues an
// access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	user, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpapi.Error(w, http.StatusUnauthorized, httpapi.TypeUnauthenticated, "Invalid credentials", "")
		case errors.Is(err, service.ErrDisabled):
			httpapi.Error(w, http.StatusUnauthorized, httpapi.TypeUnauthenticated, "Account disabled", "")
		default:
			httpapi.Internal(w, platformlogging.FromRequest(r, h.logger), "authenticate user", err)
		}
		return
	}

	token, err := h.codec.Mint(user.Identity())
	if err != nil {
		httpapi.Internal(w, platformlogging.FromRequest(r, h.logger), "mint token", err)
		return
	}

	httpapi.JSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		UserID:      user.ID.String(),
		Email:       user.Email,
	})
}

type meResponse struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	IsSuperuser bool   `json:"isSuperuser"`
}

// Me returns the authenticated caller's global identity record.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpapi.Error(w, http.StatusUnauthorized, httpapi.TypeUnauthenticated, "Authentication required", "")
		return
	}

	user, err := h.svc.Get(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			httpapi.Error(w, http.StatusNotFound, httpapi.TypeNotFound, "User not found", "")
			return
		}
		httpapi.Internal(w, platformlogging.FromRequest(r, h.logger), "load user", err)
		return
	}

	httpapi.JSON(w, http.StatusOK, meResponse{
		UserID:      user.ID.String(),
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsSuperuser: user.IsSuperuser,
	})
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Problem is the error body returned by every handler, loosely following
// RFC 7807 so the frontends can switch on Type.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Status int    `json:"status"`
	Field  string `json:"field,omitempty"`
}

const (
	problemBase         = "https://edusekai.io/problems/"
	TypeValidation      = problemBase + "validation-error"
	TypeNotFound        = problemBase + "not-found"
	TypeConflict        = problemBase + "conflict"
	TypeUnauthenticated = problemBase + "unauthenticated"
	TypeForbidden       = problemBase + "forbidden"
	TypeProvisioning    = problemBase + "partition-provisioning-failed"
	TypeInternal        = problemBase + "internal-error"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a problem response.
func Error(w http.ResponseWriter, status int, problemType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   problemType,
		Title:  title,
		Detail: detail,
		Status: status,
	})
}

// FieldConflict writes a 409 naming the offending field, used by registration
// validation.
func FieldConflict(w http.ResponseWriter, field, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   TypeConflict,
		Title:  "Conflict",
		Detail: detail,
		Status: http.StatusConflict,
		Field:  field,
	})
}

// Internal logs err and writes an opaque 500.
func Internal(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	if logger != nil {
		logger.Error(op, zap.Error(err))
	}
	Error(w, http.StatusInternalServerError, TypeInternal, "Internal error", "")
}

// Decode reads a JSON body into dst, returning false after writing a 400 when
// the body is malformed.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		Error(w, http.StatusBadRequest, TypeValidation, "Invalid request body", err.Error())
		return false
	}
	return true
}

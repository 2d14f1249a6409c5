package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Identity is the authenticated caller as consumed by the request binder and
// the permission resolver. Token verification produces it; business handlers
// only ever read it from the context.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	IsSuperuser bool
}

type ctxKey string

const identityKey ctxKey = "EDUSEKAI_IDENTITY"

// WithIdentity returns a derived context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the identity and a boolean indicating presence.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// ExtractBearerToken pulls a bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Middleware verifies a bearer token when present and attaches the identity to
// the request context. Requests without a token pass through anonymously;
// individual handlers decide whether authentication is required. A token that
// is present but invalid is rejected outright.
func Middleware(codec *TokenCodec) func(http.Handler) http.Handler {
	if codec == nil {
		panic("auth.Middleware: codec is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, found := ExtractBearerToken(r)
			if !found {
				next.ServeHTTP(w, r)
				return
			}

			id, err := codec.Verify(token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

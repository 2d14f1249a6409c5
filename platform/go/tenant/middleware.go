package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// ErrUnknownHost is returned by SpaceResolver implementations when no active
// tenant answers to a hostname.
var ErrUnknownHost = errors.New("no tenant for hostname")

// SpaceResolver maps a request hostname to a partition binding.
type SpaceResolver interface {
	SpaceForHostname(ctx context.Context, hostname string) (Space, error)
}

// BinderConfig configures the request binder middleware.
type BinderConfig struct {
	Resolver SpaceResolver

	// SharedHosts are hostnames served from the shared partition: the bare
	// base domain plus whatever local aliases the deployment uses.
	SharedHosts []string

	Logger *zap.Logger
}

// Binder resolves the Host header to a tenant Space and attaches it to the
// request context before any handler runs. Hosts in SharedHosts bind the
// shared partition; an unknown or inactive tenant host is rejected with 404
// so deactivated schools disappear from the outside.
func Binder(cfg BinderConfig) func(http.Handler) http.Handler {
	if cfg.Resolver == nil {
		panic("tenant: space resolver is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	shared := make(map[string]bool, len(cfg.SharedHosts))
	for _, h := range cfg.SharedHosts {
		shared[strings.ToLower(h)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := NormalizeHost(r.Host)
			if shared[host] {
				next.ServeHTTP(w, r.WithContext(WithSpace(r.Context(), Space{SchemaName: SharedSchema})))
				return
			}

			space, err := cfg.Resolver.SpaceForHostname(r.Context(), host)
			if errors.Is(err, ErrUnknownHost) {
				writeBinderError(w, http.StatusNotFound, "Unknown tenant")
				return
			}
			if err != nil {
				logger.Error("resolve tenant host", zap.String("host", host), zap.Error(err))
				writeBinderError(w, http.StatusInternalServerError, "Internal error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSpace(r.Context(), space)))
		})
	}
}

// NormalizeHost lowercases a Host header and strips any port.
func NormalizeHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

func writeBinderError(w http.ResponseWriter, status int, title string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":  title,
		"status": status,
	})
}

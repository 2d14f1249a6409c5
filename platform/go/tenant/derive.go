package tenant

import (
	"strings"

	"github.com/google/uuid"
)

// SchemaNameFor returns the physical schema name for a partition key. The
// partition key is already a validated identifier, so the mapping is the
// identity transform today; keeping it behind a function means the naming
// convention can change without touching callers.
func SchemaNameFor(partitionKey string) string {
	return strings.ToLower(strings.TrimSpace(partitionKey))
}

// ShortID returns the first 8 hexadecimal characters of a UUID (without
// dashes), used when generating human-facing identifiers such as employee ids.
func ShortID(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	if len(hex) < 8 {
		return hex
	}
	return hex[:8]
}

// PrimaryHostname returns `{partitionKey}.{baseDomain}`, the canonical
// primary domain registered for a new tenant.
func PrimaryHostname(partitionKey, baseDomain string) string {
	return strings.ToLower(partitionKey + "." + strings.TrimPrefix(baseDomain, "."))
}

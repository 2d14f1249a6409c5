package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Partition keys double as Postgres schema names, so the pattern is stricter
// than a URL slug: lowercase alphanumerics and underscores, starting with a
// letter, short enough to stay inside the 63-byte identifier limit.
var partitionKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)

// reservedPartitionKeys can never be claimed by a tenant.
var reservedPartitionKeys = map[string]struct{}{
	"public":             {},
	"pg_catalog":         {},
	"information_schema": {},
	"admin":              {},
	"www":                {},
	"api":                {},
}

// NormalizePartitionKey trims and lowercases the value and ensures it is a
// valid, non-reserved partition identifier.
func NormalizePartitionKey(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.New("partition key is required")
	}

	normalized := strings.ToLower(trimmed)
	if !partitionKeyPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid partition key %q: must match ^[a-z][a-z0-9_]{1,49}$", input)
	}
	if _, reserved := reservedPartitionKeys[normalized]; reserved {
		return "", fmt.Errorf("partition key %q is reserved", normalized)
	}

	return normalized, nil
}

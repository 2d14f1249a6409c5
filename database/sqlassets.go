package sqlassets

import _ "embed"

//go:embed schema/shared/users.sql
var SharedUsersSQL string

//go:embed schema/shared/tenants.sql
var SharedTenantsSQL string

//go:embed schema/tenant/access_control.sql
var TenantAccessControlSQL string

//go:embed schema/tenant/profiles.sql
var TenantProfilesSQL string

// SharedStatements returns the DDL applied to the shared schema, in order.
func SharedStatements() []string {
	return []string{SharedUsersSQL, SharedTenantsSQL}
}

// TenantStatements returns the DDL applied to every tenant partition, in order.
func TenantStatements() []string {
	return []string{TenantAccessControlSQL, TenantProfilesSQL}
}

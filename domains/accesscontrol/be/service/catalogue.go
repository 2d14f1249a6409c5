package service

// System role slugs. These roles are seeded into every tenant partition and
// cannot be removed.
const (
	RoleOwner      = "owner"
	RoleStaff      = "staff"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// PermissionDef describes one entry of the built-in permission catalogue.
type PermissionDef struct {
	Codename    string
	Name        string
	Module      string
	Description string
}

// RoleDef describes a system role and the catalogue permissions it starts
// with. The owner role is granted the full catalogue at seed time instead of
// listing codenames here.
type RoleDef struct {
	Slug        string
	Name        string
	Description string
	Permissions []string
}

// Catalogue returns the fixed permission catalogue seeded into every tenant
// partition.
func Catalogue() []PermissionDef {
	return []PermissionDef{
		{Codename: "view_role", Name: "View roles", Module: "roles", Description: "List roles and their permission grants"},
		{Codename: "create_role", Name: "Create roles", Module: "roles", Description: "Create custom roles"},
		{Codename: "edit_role", Name: "Edit roles", Module: "roles", Description: "Change role grants and assign roles to users"},
		{Codename: "delete_role", Name: "Delete roles", Module: "roles", Description: "Remove custom roles"},
		{Codename: "view_institution_profile", Name: "View institution profile", Module: "institution", Description: "Read the school record"},
		{Codename: "edit_institution_profile", Name: "Edit institution profile", Module: "institution", Description: "Update the school record"},
	}
}

// SystemRoles returns the role definitions seeded into every tenant
// partition.
func SystemRoles() []RoleDef {
	return []RoleDef{
		{
			Slug:        RoleOwner,
			Name:        "Owner",
			Description: "Full control over the tenant",
			// Grants are expanded to the whole catalogue at seed time.
		},
		{
			Slug:        RoleStaff,
			Name:        "Staff",
			Description: "Administrative staff",
			Permissions: []string{"view_role", "view_institution_profile", "edit_institution_profile"},
		},
		{
			Slug:        RoleInstructor,
			Name:        "Instructor",
			Description: "Teaching staff",
			Permissions: []string{"view_institution_profile"},
		},
		{
			Slug:        RoleStudent,
			Name:        "Student",
			Description: "Enrolled student",
			Permissions: []string{"view_institution_profile"},
		},
	}
}

// IsSystemRole reports whether a slug belongs to the seeded role set.
func IsSystemRole(slug string) bool {
	switch slug {
	case RoleOwner, RoleStaff, RoleInstructor, RoleStudent:
		return true
	}
	return false
}

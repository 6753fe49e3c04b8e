package domain

import "fmt"

// Role is the closed set of user roles.
type Role string

const (
	RoleUser    Role = "user"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// ParseRole converts a string into a Role, rejecting anything outside the
// closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin, RoleManager:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}

// Permission is the closed set of fine-grained permissions attached to roles.
type Permission string

const (
	PermAdminRead        Permission = "admin:read"
	PermAdminCreate      Permission = "admin:create"
	PermAdminUpdate      Permission = "admin:update"
	PermAdminDelete      Permission = "admin:delete"
	PermManagementRead   Permission = "management:read"
	PermManagementCreate Permission = "management:create"
	PermManagementUpdate Permission = "management:update"
	PermManagementDelete Permission = "management:delete"
)

func (p Permission) String() string {
	return string(p)
}

// Permissions returns the permission set granted by the role. Plain users
// carry no fine-grained permissions; admins additionally hold the full
// management set.
func (r Role) Permissions() []Permission {
	switch r {
	case RoleAdmin:
		return []Permission{
			PermAdminRead, PermAdminCreate, PermAdminUpdate, PermAdminDelete,
			PermManagementRead, PermManagementCreate, PermManagementUpdate, PermManagementDelete,
		}
	case RoleManager:
		return []Permission{
			PermManagementRead, PermManagementCreate, PermManagementUpdate, PermManagementDelete,
		}
	default:
		return nil
	}
}

// Has reports whether the role grants the given permission.
func (r Role) Has(p Permission) bool {
	for _, have := range r.Permissions() {
		if have == p {
			return true
		}
	}
	return false
}

// PermissionStrings returns the role's permissions as plain strings, in the
// form middleware principals carry.
func (r Role) PermissionStrings() []string {
	perms := r.Permissions()
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

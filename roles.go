package guard

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account (view and edit own resources)
	RoleUser UserRole = "user"
	// RoleAdmin passes every role and ownership check
	RoleAdmin UserRole = "admin"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleSatisfies reports whether current grants the access level of required.
// Admin satisfies every role.
func RoleSatisfies(current, required UserRole) bool {
	if current == RoleAdmin {
		return true
	}
	return current == required
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}

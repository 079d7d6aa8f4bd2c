package auth

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleGuest, RoleMember, RoleAdmin, RoleOwner:
		return true
	default:
		return false
	}
}

// roleLevel maps roles to their position in the hierarchy
func roleLevel(r UserRole) int {
	switch r {
	case RoleGuest:
		return 0
	case RoleMember:
		return 1
	case RoleAdmin:
		return 2
	case RoleOwner:
		return 3
	default:
		return -1
	}
}

// IsAtLeast checks if this role is at or above the given minimum role
func (r UserRole) IsAtLeast(minRole UserRole) bool {
	level, minLevel := roleLevel(r), roleLevel(minRole)
	if level < 0 || minLevel < 0 {
		return false
	}
	return level >= minLevel
}

// ParseRole returns a valid role and true, or empty and false
func ParseRole(s string) (UserRole, bool) {
	role := UserRole(s)
	return role, role.IsValid()
}

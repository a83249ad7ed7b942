package enums

import "fmt"

// UserRole is the portal-wide permission tier of a user.
type UserRole string

const (
	UserRoleOwner  UserRole = "owner"
	UserRoleCEO    UserRole = "ceo"
	UserRoleAdmin  UserRole = "admin"
	UserRoleTeam   UserRole = "team"
	UserRoleClient UserRole = "client"
)

var validUserRoles = []UserRole{
	UserRoleOwner,
	UserRoleCEO,
	UserRoleAdmin,
	UserRoleTeam,
	UserRoleClient,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsExecutive covers owner and ceo.
func (r UserRole) IsExecutive() bool {
	return r == UserRoleOwner || r == UserRoleCEO
}

// IsPrivileged covers the roles that manage workspaces and targets.
func (r UserRole) IsPrivileged() bool {
	return r.IsExecutive() || r == UserRoleAdmin
}

// IsStaff covers team and client, the only roles an admin may manage.
func (r UserRole) IsStaff() bool {
	return r == UserRoleTeam || r == UserRoleClient
}

// In reports whether r is one of roles.
func (r UserRole) In(roles ...UserRole) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

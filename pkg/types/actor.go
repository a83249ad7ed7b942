package types

import "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID int64
	Email  string
	Role   enums.UserRole
	IP     string
}

// IsPrivileged reports whether the actor may manage workspaces and targets.
func (a Actor) IsPrivileged() bool {
	return a.Role.IsPrivileged()
}

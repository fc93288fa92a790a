package domain

import "time"

// Role enumerates account roles. Role determines which review actions are
// permitted.
type Role string

const (
	RoleBuyer      Role = "BUYER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// IsStaff reports whether the role may perform review actions.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is the domain model for buyers and staff.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

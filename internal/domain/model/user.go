package model

import "time"

// Role is the marketplace role a user registered with.
type Role string

const (
	RoleFarmer   Role = "FARMER"
	RoleBuyer    Role = "BUYER"
	RoleRider    Role = "RIDER"
	RoleSupplier Role = "SUPPLIER"
	RoleAdmin    Role = "ADMIN"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleFarmer, RoleBuyer, RoleRider, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered marketplace participant.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	Phone        string
	CreatedAt    time.Time
}

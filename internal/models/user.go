package models

import "time"

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleDispatcher Role = "dispatcher"
	RoleAdmin      Role = "admin"
)

// Roles lists every role in display order.
var Roles = []Role{RoleCustomer, RoleDispatcher, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDispatcher, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	IsActive  bool      `json:"isActive"`
}

type UserCreateInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
	Role     Role
}

// UserPatch: nil fields are left untouched.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Phone    *string
	Address  *string
	Role     *Role
	IsActive *bool
}

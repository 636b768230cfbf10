package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a user within the shelter network
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMaster UserRole = "master" // reserved network-wide operator account
	RolePadrao UserRole = "padrao"
	RoleOrgao  UserRole = "orgao"
)

// Roles lists every known role in declaration order
var Roles = []UserRole{RoleAdmin, RoleMaster, RolePadrao, RoleOrgao}

// Valid reports whether r belongs to the closed set of roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleMaster, RolePadrao, RoleOrgao:
		return true
	}
	return false
}

// Privileged reports whether r unlocks administrative navigation and endpoints
func (r UserRole) Privileged() bool {
	return r == RoleAdmin || r == RoleMaster
}

// User represents an account authenticated by the hosted auth platform
type User struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	Email       string       `json:"email" db:"email"`
	Nome        string       `json:"nome" db:"nome"`
	Role        UserRole     `json:"role" db:"role"`
	EmpresaID   *uuid.UUID   `json:"empresa_id,omitempty" db:"empresa_id"`
	EmpresaType *EmpresaType `json:"empresa_type,omitempty" db:"empresa_type"` // joined from empresas.tipo
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance
func NewUser(id uuid.UUID, email, nome string, role UserRole) *User {
	now := time.Now()
	return &User{
		ID:        id,
		Email:     email,
		Nome:      nome,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin returns true if the user may see administrative menus
func (u *User) IsAdmin() bool {
	return u.Role.Privileged()
}

// HasEmpresa returns true when the user belongs to an organization with a known type
func (u *User) HasEmpresa() bool {
	return u.EmpresaType != nil && u.EmpresaType.Valid()
}

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PermissionKind represents the action category being checked on a table field
type PermissionKind string

const (
	PermissionRead   PermissionKind = "read"
	PermissionWrite  PermissionKind = "write"
	PermissionDelete PermissionKind = "delete"
	PermissionAdmin  PermissionKind = "admin"
)

// PermissionKinds lists every known permission kind
var PermissionKinds = []PermissionKind{PermissionRead, PermissionWrite, PermissionDelete, PermissionAdmin}

// Valid reports whether k belongs to the closed set of permission kinds
func (k PermissionKind) Valid() bool {
	switch k {
	case PermissionRead, PermissionWrite, PermissionDelete, PermissionAdmin:
		return true
	}
	return false
}

// Permission grants a role one kind of access to a single field of a table.
// Absence of a record means denial; there are no explicit deny records.
type Permission struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	Role           UserRole       `json:"role" db:"role"`
	Table          string         `json:"table" db:"table_name"`
	Field          string         `json:"field" db:"field_name"`
	PermissionType PermissionKind `json:"permission_type" db:"permission_type"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Permission model
func (Permission) TableName() string {
	return "permissions"
}

// NewPermission creates a new Permission instance
func NewPermission(role UserRole, table, field string, kind PermissionKind) *Permission {
	now := time.Now()
	return &Permission{
		ID:             uuid.New(),
		Role:           role,
		Table:          table,
		Field:          field,
		PermissionType: kind,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate checks that every field of the record is populated with a known value
func (p *Permission) Validate() error {
	switch {
	case p.ID == uuid.Nil:
		return fmt.Errorf("permission id is empty")
	case !p.Role.Valid():
		return fmt.Errorf("unknown role %q", p.Role)
	case strings.TrimSpace(p.Table) == "":
		return fmt.Errorf("permission %s has no table", p.ID)
	case strings.TrimSpace(p.Field) == "":
		return fmt.Errorf("permission %s has no field", p.ID)
	case !p.PermissionType.Valid():
		return fmt.Errorf("unknown permission type %q", p.PermissionType)
	}
	return nil
}

// Matches reports whether the record grants kind on table.field to role
func (p *Permission) Matches(role UserRole, table, field string, kind PermissionKind) bool {
	return p.Role == role && p.Table == table && p.Field == field && p.PermissionType == kind
}

// FieldPermissions holds the grants of one role on one table, keyed by field
type FieldPermissions map[string]map[PermissionKind]bool

// Grant records kind on field
func (fp FieldPermissions) Grant(field string, kind PermissionKind) {
	kinds, ok := fp[field]
	if !ok {
		kinds = make(map[PermissionKind]bool)
		fp[field] = kinds
	}
	kinds[kind] = true
}

// Has reports whether kind is granted on field. A nil map grants nothing.
func (fp FieldPermissions) Has(field string, kind PermissionKind) bool {
	return fp[field][kind]
}

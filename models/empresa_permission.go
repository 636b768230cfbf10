package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Section is a functional area of the application gated per organization type
type Section string

const (
	SectionAcolhidos    Section = "acolhidos"
	SectionUsuarios     Section = "usuarios"
	SectionAgendamentos Section = "agendamentos"
	SectionDocumentos   Section = "documentos"
	SectionRelatorios   Section = "relatorios"
)

// Action is an operation on a section
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

var crudActions = []Action{ActionView, ActionCreate, ActionEdit, ActionDelete}

// SectionActions is the fixed catalog of sections and the actions each accepts
var SectionActions = map[Section][]Action{
	SectionAcolhidos:    crudActions,
	SectionUsuarios:     crudActions,
	SectionAgendamentos: crudActions,
	SectionDocumentos:   crudActions,
	SectionRelatorios:   {ActionView, ActionExport},
}

// Sections lists the catalog sections in display order
var Sections = []Section{
	SectionAcolhidos,
	SectionUsuarios,
	SectionAgendamentos,
	SectionDocumentos,
	SectionRelatorios,
}

// KnownAction reports whether action is part of the catalog for section
func KnownAction(section Section, action Action) bool {
	for _, a := range SectionActions[section] {
		if a == action {
			return true
		}
	}
	return false
}

// SectionPermissions maps section -> action -> allowed. Stored as JSONB.
type SectionPermissions map[Section]map[Action]bool

// Allowed returns the leaf for section/action, false for anything outside the catalog or absent
func (sp SectionPermissions) Allowed(section Section, action Action) bool {
	if !KnownAction(section, action) {
		return false
	}
	return sp[section][action]
}

// Validate rejects sections or actions outside the catalog
func (sp SectionPermissions) Validate() error {
	for section, actions := range sp {
		if _, ok := SectionActions[section]; !ok {
			return fmt.Errorf("unknown section %q", section)
		}
		for action := range actions {
			if !KnownAction(section, action) {
				return fmt.Errorf("unknown action %q for section %q", action, section)
			}
		}
	}
	return nil
}

// Value implements driver.Valuer
func (sp SectionPermissions) Value() (driver.Value, error) {
	if sp == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(sp)
}

// Scan implements sql.Scanner
func (sp *SectionPermissions) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*sp = SectionPermissions{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into SectionPermissions", src)
	}
	out := SectionPermissions{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("invalid section permissions: %w", err)
	}
	*sp = out
	return nil
}

// EmpresaPermission is the section-level permission overlay of one organization type
type EmpresaPermission struct {
	ID          uuid.UUID          `json:"id" db:"id"`
	EmpresaType EmpresaType        `json:"empresa_type" db:"empresa_type"`
	Permissions SectionPermissions `json:"permissions" db:"permissions"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the EmpresaPermission model
func (EmpresaPermission) TableName() string {
	return "empresa_permissions"
}

// NewEmpresaPermission creates a new EmpresaPermission instance
func NewEmpresaPermission(empresaType EmpresaType, permissions SectionPermissions) *EmpresaPermission {
	now := time.Now()
	if permissions == nil {
		permissions = SectionPermissions{}
	}
	return &EmpresaPermission{
		ID:          uuid.New(),
		EmpresaType: empresaType,
		Permissions: permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Can returns the leaf at permissions[section][action]. Safe on a nil receiver.
func (ep *EmpresaPermission) Can(section Section, action Action) bool {
	if ep == nil {
		return false
	}
	return ep.Permissions.Allowed(section, action)
}

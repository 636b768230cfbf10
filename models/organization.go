package models

import (
	"time"

	"github.com/google/uuid"
)

// EmpresaType classifies an organization of the network
type EmpresaType string

const (
	EmpresaAbrigo EmpresaType = "abrigo"
	EmpresaCAPS   EmpresaType = "caps"
	EmpresaCREAS  EmpresaType = "creas"
	EmpresaOutro  EmpresaType = "outro"
)

// EmpresaTypes lists every known organization type
var EmpresaTypes = []EmpresaType{EmpresaAbrigo, EmpresaCAPS, EmpresaCREAS, EmpresaOutro}

// Valid reports whether t belongs to the closed set of organization types
func (t EmpresaType) Valid() bool {
	switch t {
	case EmpresaAbrigo, EmpresaCAPS, EmpresaCREAS, EmpresaOutro:
		return true
	}
	return false
}

// Empresa represents an organization (shelter, care center, ...) of the network
type Empresa struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Nome      string      `json:"nome" db:"nome"`
	Tipo      EmpresaType `json:"tipo" db:"tipo"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Empresa model
func (Empresa) TableName() string {
	return "empresas"
}

// NewEmpresa creates a new Empresa instance
func NewEmpresa(nome string, tipo EmpresaType) *Empresa {
	now := time.Now()
	return &Empresa{
		ID:        uuid.New(),
		Nome:      nome,
		Tipo:      tipo,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

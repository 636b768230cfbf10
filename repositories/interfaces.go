package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
)

// ErrNotFound is wrapped by repositories when the requested row does not exist
var ErrNotFound = errors.New("record not found")

// ErrMalformed is wrapped by repositories when a stored row is missing expected fields
var ErrMalformed = errors.New("malformed record")

// ErrConflict is wrapped by repositories when a uniqueness constraint rejects a write
var ErrConflict = errors.New("record conflicts with an existing row")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// PermissionRepository handles fine-grained permission records
type PermissionRepository interface {
	// Exists reports whether at least one record grants kind on table.field to role
	Exists(ctx context.Context, role models.UserRole, table, field string, kind models.PermissionKind) (bool, error)

	// List returns every well-formed permission record. Malformed rows are skipped and logged.
	List(ctx context.Context) ([]*models.Permission, error)

	// ListByRoleAndTable returns the records of one role on one table
	ListByRoleAndTable(ctx context.Context, role models.UserRole, table string) ([]*models.Permission, error)

	Create(ctx context.Context, permission *models.Permission) error

	// GetByID returns one record, or an error wrapping ErrMalformed when the row fails validation
	GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByRoleAndTable removes every record of role on table and returns how many were removed
	DeleteByRoleAndTable(ctx context.Context, role models.UserRole, table string) (int64, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) PermissionRepository
}

// EmpresaPermissionRepository handles section-level overlays keyed by organization type
type EmpresaPermissionRepository interface {
	// GetByType returns the overlay of empresaType, or an error wrapping ErrNotFound
	GetByType(ctx context.Context, empresaType models.EmpresaType) (*models.EmpresaPermission, error)

	List(ctx context.Context) ([]*models.EmpresaPermission, error)

	// Upsert inserts or replaces the single overlay of ep.EmpresaType
	Upsert(ctx context.Context, ep *models.EmpresaPermission) error

	WithTx(tx Transaction) EmpresaPermissionRepository
}

// UserRepository handles user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user with the type of their organization joined in
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// UpdateRole changes the role of a user
	UpdateRole(ctx context.Context, id uuid.UUID, role models.UserRole) error

	// UpdateEmpresa moves a user to another organization (nil detaches)
	UpdateEmpresa(ctx context.Context, id uuid.UUID, empresaID *uuid.UUID) error

	WithTx(tx Transaction) UserRepository
}

// EmpresaRepository handles organization data operations
type EmpresaRepository interface {
	Create(ctx context.Context, empresa *models.Empresa) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Empresa, error)

	List(ctx context.Context, limit, offset int) ([]*models.Empresa, error)

	WithTx(tx Transaction) EmpresaRepository
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByActorID retrieves audit logs written on behalf of a user, newest first
	GetByActorID(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)

	// GetByDateRange retrieves audit logs within a date range, newest first
	GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.AuditLog, error)

	WithTx(tx Transaction) AuditRepository
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users              UserRepository
	Empresas           EmpresaRepository
	Permissions        PermissionRepository
	EmpresaPermissions EmpresaPermissionRepository
	AuditLogs          AuditRepository
}

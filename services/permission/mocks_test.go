package permission

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services/audit"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.UserRole) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockUserRepository) UpdateEmpresa(ctx context.Context, id uuid.UUID, empresaID *uuid.UUID) error {
	return m.Called(ctx, id, empresaID).Error(0)
}

func (m *MockUserRepository) WithTx(tx repositories.Transaction) repositories.UserRepository {
	return m.Called(tx).Get(0).(repositories.UserRepository)
}

// MockPermissionRepository is a mock implementation of PermissionRepository
type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) Exists(ctx context.Context, role models.UserRole, table, field string, kind models.PermissionKind) (bool, error) {
	args := m.Called(ctx, role, table, field, kind)
	return args.Bool(0), args.Error(1)
}

func (m *MockPermissionRepository) List(ctx context.Context) ([]*models.Permission, error) {
	args := m.Called(ctx)
	if perms := args.Get(0); perms != nil {
		return perms.([]*models.Permission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPermissionRepository) ListByRoleAndTable(ctx context.Context, role models.UserRole, table string) ([]*models.Permission, error) {
	args := m.Called(ctx, role, table)
	if perms := args.Get(0); perms != nil {
		return perms.([]*models.Permission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPermissionRepository) Create(ctx context.Context, permission *models.Permission) error {
	return m.Called(ctx, permission).Error(0)
}

func (m *MockPermissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.Permission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPermissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPermissionRepository) DeleteByRoleAndTable(ctx context.Context, role models.UserRole, table string) (int64, error) {
	args := m.Called(ctx, role, table)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPermissionRepository) WithTx(tx repositories.Transaction) repositories.PermissionRepository {
	return m.Called(tx).Get(0).(repositories.PermissionRepository)
}

// MockEmpresaPermissionRepository is a mock implementation of EmpresaPermissionRepository
type MockEmpresaPermissionRepository struct {
	mock.Mock
}

func (m *MockEmpresaPermissionRepository) GetByType(ctx context.Context, empresaType models.EmpresaType) (*models.EmpresaPermission, error) {
	args := m.Called(ctx, empresaType)
	if ep := args.Get(0); ep != nil {
		return ep.(*models.EmpresaPermission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmpresaPermissionRepository) List(ctx context.Context) ([]*models.EmpresaPermission, error) {
	args := m.Called(ctx)
	if eps := args.Get(0); eps != nil {
		return eps.([]*models.EmpresaPermission), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmpresaPermissionRepository) Upsert(ctx context.Context, ep *models.EmpresaPermission) error {
	return m.Called(ctx, ep).Error(0)
}

func (m *MockEmpresaPermissionRepository) WithTx(tx repositories.Transaction) repositories.EmpresaPermissionRepository {
	return m.Called(tx).Get(0).(repositories.EmpresaPermissionRepository)
}

// MockTransactionManager is a mock implementation of TransactionManager
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	return m.Called(ctx, fn).Error(0)
}

// MockTransaction is a mock implementation of Transaction
type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Commit() error   { return m.Called().Error(0) }
func (m *MockTransaction) Rollback() error { return m.Called().Error(0) }

func (m *MockTransaction) Context() context.Context {
	return m.Called().Get(0).(context.Context)
}

// MockAuditRecorder is a mock implementation of AuditRecorder
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) LogPermissionCreated(p *models.Permission, actor audit.Actor) error {
	return m.Called(p, actor).Error(0)
}

func (m *MockAuditRecorder) LogPermissionDeleted(p *models.Permission, actor audit.Actor) error {
	return m.Called(p, actor).Error(0)
}

func (m *MockAuditRecorder) LogRolePermissionsReplaced(role models.UserRole, table string, removed int64, granted int, actor audit.Actor) error {
	return m.Called(role, table, removed, granted, actor).Error(0)
}

func (m *MockAuditRecorder) LogEmpresaPermissionUpdated(ep *models.EmpresaPermission, actor audit.Actor) error {
	return m.Called(ep, actor).Error(0)
}

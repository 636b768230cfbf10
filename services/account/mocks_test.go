package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services/audit"
	"github.com/stretchr/testify/mock"
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

// MockEmpresaRepository is a mock implementation of EmpresaRepository
type MockEmpresaRepository struct {
	mock.Mock
}

func (m *MockEmpresaRepository) Create(ctx context.Context, empresa *models.Empresa) error {
	return m.Called(ctx, empresa).Error(0)
}

func (m *MockEmpresaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Empresa, error) {
	args := m.Called(ctx, id)
	if e := args.Get(0); e != nil {
		return e.(*models.Empresa), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmpresaRepository) List(ctx context.Context, limit, offset int) ([]*models.Empresa, error) {
	args := m.Called(ctx, limit, offset)
	if es := args.Get(0); es != nil {
		return es.([]*models.Empresa), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEmpresaRepository) WithTx(tx repositories.Transaction) repositories.EmpresaRepository {
	return m.Called(tx).Get(0).(repositories.EmpresaRepository)
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

type MockSessionInvalidator struct {
	mock.Mock
}

func (m *MockSessionInvalidator) InvalidateUser(userID uuid.UUID) int {
	return m.Called(userID).Int(0)
}

type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) LogUserRoleChanged(userID uuid.UUID, from, to models.UserRole, actor audit.Actor) error {
	return m.Called(userID, from, to, actor).Error(0)
}

func (m *MockAuditRecorder) LogUserEmpresaChanged(userID uuid.UUID, from, to *uuid.UUID, actor audit.Actor) error {
	return m.Called(userID, from, to, actor).Error(0)
}

func (m *MockAuditRecorder) LogEmpresaCreated(e *models.Empresa, actor audit.Actor) error {
	return m.Called(e, actor).Error(0)
}

package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services/session"
	"github.com/stretchr/testify/mock"
)

type MockChecker struct {
	mock.Mock
}

func (m *MockChecker) HasPermission(ctx context.Context, userID uuid.UUID, table, field string, kind models.PermissionKind) (bool, error) {
	args := m.Called(ctx, userID, table, field, kind)
	return args.Bool(0), args.Error(1)
}

type MockRoleLookup struct {
	mock.Mock
}

func (m *MockRoleLookup) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Get(sessionID string) (*session.Session, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionStore) Establish(ctx context.Context, sessionID string, userID uuid.UUID) (*session.Session, error) {
	args := m.Called(ctx, sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionStore) EnsureOverlay(ctx context.Context, s *session.Session) {
	m.Called(ctx, s)
}

type MockEmpresaPermissionRepository struct {
	mock.Mock
}

func (m *MockEmpresaPermissionRepository) GetByType(ctx context.Context, empresaType models.EmpresaType) (*models.EmpresaPermission, error) {
	args := m.Called(ctx, empresaType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmpresaPermission), args.Error(1)
}

func (m *MockEmpresaPermissionRepository) List(ctx context.Context) ([]*models.EmpresaPermission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EmpresaPermission), args.Error(1)
}

func (m *MockEmpresaPermissionRepository) Upsert(ctx context.Context, ep *models.EmpresaPermission) error {
	return m.Called(ctx, ep).Error(0)
}

func (m *MockEmpresaPermissionRepository) WithTx(tx repositories.Transaction) repositories.EmpresaPermissionRepository {
	return m
}

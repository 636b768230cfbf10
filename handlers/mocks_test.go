package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/middleware"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services/account"
	"github.com/rede-abrigo/admin-backend/services/audit"
	"github.com/rede-abrigo/admin-backend/services/permission"
	"github.com/rede-abrigo/admin-backend/services/session"
	"github.com/stretchr/testify/mock"
)

type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) Establish(ctx context.Context, sessionID string, userID uuid.UUID) (*session.Session, error) {
	args := m.Called(ctx, sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionManager) End(sessionID string) bool {
	return m.Called(sessionID).Bool(0)
}

type MockPermissionChecker struct {
	mock.Mock
}

func (m *MockPermissionChecker) HasPermission(ctx context.Context, userID uuid.UUID, table, field string, kind models.PermissionKind) (bool, error) {
	args := m.Called(ctx, userID, table, field, kind)
	return args.Bool(0), args.Error(1)
}

func (m *MockPermissionChecker) TablePermissions(ctx context.Context, userID uuid.UUID, table string) (models.FieldPermissions, error) {
	args := m.Called(ctx, userID, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.FieldPermissions), args.Error(1)
}

type MockPermissionAdmin struct {
	mock.Mock
}

func (m *MockPermissionAdmin) ListPermissions(ctx context.Context) ([]*models.Permission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Permission), args.Error(1)
}

func (m *MockPermissionAdmin) CreatePermission(ctx context.Context, actor audit.Actor, input permission.CreatePermissionInput) (*models.Permission, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Permission), args.Error(1)
}

func (m *MockPermissionAdmin) DeletePermission(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *MockPermissionAdmin) ReplaceRolePermissions(ctx context.Context, actor audit.Actor, input permission.ReplaceRolePermissionsInput) ([]*models.Permission, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Permission), args.Error(1)
}

func (m *MockPermissionAdmin) ListEmpresaPermissions(ctx context.Context) ([]*models.EmpresaPermission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EmpresaPermission), args.Error(1)
}

func (m *MockPermissionAdmin) GetEmpresaPermission(ctx context.Context, empresaType models.EmpresaType) (*models.EmpresaPermission, error) {
	args := m.Called(ctx, empresaType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmpresaPermission), args.Error(1)
}

func (m *MockPermissionAdmin) UpsertEmpresaPermission(ctx context.Context, actor audit.Actor, empresaType models.EmpresaType, permissions models.SectionPermissions) (*models.EmpresaPermission, error) {
	args := m.Called(ctx, actor, empresaType, permissions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EmpresaPermission), args.Error(1)
}

type MockAuditLogReader struct {
	mock.Mock
}

func (m *MockAuditLogReader) GetByActorID(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, actorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogReader) GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.AuditLog, error) {
	args := m.Called(ctx, start, end, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
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

// withURLParams attaches chi route parameters to a request built outside a router
type MockAccountAdmin struct {
	mock.Mock
}

func (m *MockAccountAdmin) UpdateRole(ctx context.Context, actor audit.Actor, userID uuid.UUID, input account.UpdateRoleInput) (*models.User, error) {
	args := m.Called(ctx, actor, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountAdmin) UpdateEmpresa(ctx context.Context, actor audit.Actor, userID uuid.UUID, input account.UpdateEmpresaInput) (*models.User, error) {
	args := m.Called(ctx, actor, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountAdmin) ListEmpresas(ctx context.Context, limit, offset int) ([]*models.Empresa, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Empresa), args.Error(1)
}

func (m *MockAccountAdmin) CreateEmpresa(ctx context.Context, actor audit.Actor, input account.CreateEmpresaInput) (*models.Empresa, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Empresa), args.Error(1)
}

func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// asUser marks a request as authenticated by userID with the given session key
func asUser(r *http.Request, userID uuid.UUID, sessionID string) *http.Request {
	ctx := middleware.WithClaims(r.Context(), &middleware.Claims{UserID: userID, SessionID: sessionID, Email: "ana@example.org"})
	ctx = middleware.WithUserID(ctx, &userID)
	return r.WithContext(ctx)
}

package account

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services"
	"github.com/rede-abrigo/admin-backend/services/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type accountFixture struct {
	service  *AccountService
	users    *MockUserRepository
	empresas *MockEmpresaRepository
	txMgr    *MockTransactionManager
	tx       *MockTransaction
	sessions *MockSessionInvalidator
	recorder *MockAuditRecorder
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	f := &accountFixture{
		users:    new(MockUserRepository),
		empresas: new(MockEmpresaRepository),
		txMgr:    new(MockTransactionManager),
		tx:       new(MockTransaction),
		sessions: new(MockSessionInvalidator),
		recorder: new(MockAuditRecorder),
	}
	f.service = NewAccountService(f.users, f.empresas, f.txMgr, f.sessions, f.recorder, zaptest.NewLogger(t))
	return f
}

// inTx routes the repositories through a single mocked transaction
func (f *accountFixture) inTx(ctx context.Context, commit bool) {
	f.txMgr.On("Begin", ctx).Return(f.tx, nil)
	if commit {
		f.tx.On("Commit").Return(nil)
	} else {
		f.tx.On("Rollback").Return(nil)
	}
	f.users.On("WithTx", f.tx).Return(f.users)
	f.empresas.On("WithTx", f.tx).Return(f.empresas)
}

var testActor = audit.Actor{UserID: uuid.New(), RequestID: "req-9"}

func TestAccountService_UpdateRole(t *testing.T) {
	ctx := context.Background()

	t.Run("demotion ends live sessions", func(t *testing.T) {
		f := newAccountFixture(t)
		f.inTx(ctx, true)
		user := models.NewUser(uuid.New(), "ana@example.org", "Ana", models.RoleAdmin)

		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.users.On("UpdateRole", ctx, user.ID, models.RolePadrao).Return(nil)
		f.sessions.On("InvalidateUser", user.ID).Return(2)
		f.recorder.On("LogUserRoleChanged", user.ID, models.RoleAdmin, models.RolePadrao, testActor).Return(nil)

		got, err := f.service.UpdateRole(ctx, testActor, user.ID, UpdateRoleInput{Role: "padrao"})
		require.NoError(t, err)
		assert.Equal(t, models.RolePadrao, got.Role)
		assert.False(t, got.IsAdmin())

		f.tx.AssertExpectations(t)
		f.sessions.AssertExpectations(t)
		f.recorder.AssertExpectations(t)
	})

	t.Run("unknown role", func(t *testing.T) {
		f := newAccountFixture(t)

		_, err := f.service.UpdateRole(ctx, testActor, uuid.New(), UpdateRoleInput{Role: "superuser"})
		assert.ErrorIs(t, err, services.ErrUnknownRole)
		assert.Equal(t, "superuser", services.GetErrorDetails(err)["role"])
		f.txMgr.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("empty role", func(t *testing.T) {
		f := newAccountFixture(t)

		_, err := f.service.UpdateRole(ctx, testActor, uuid.New(), UpdateRoleInput{})
		assert.True(t, services.IsValidationError(err))
		f.txMgr.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("own role", func(t *testing.T) {
		f := newAccountFixture(t)

		_, err := f.service.UpdateRole(ctx, testActor, testActor.UserID, UpdateRoleInput{Role: "padrao"})
		assert.ErrorIs(t, err, services.ErrSelfRoleChange)
		assert.True(t, services.IsForbiddenError(err))
		f.sessions.AssertNotCalled(t, "InvalidateUser", mock.Anything)
	})

	t.Run("missing user", func(t *testing.T) {
		f := newAccountFixture(t)
		f.inTx(ctx, false)
		id := uuid.New()
		f.users.On("GetByID", ctx, id).Return(nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound))

		_, err := f.service.UpdateRole(ctx, testActor, id, UpdateRoleInput{Role: "orgao"})
		assert.ErrorIs(t, err, services.ErrUserNotFound)
		f.users.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
		f.sessions.AssertNotCalled(t, "InvalidateUser", mock.Anything)
	})

	t.Run("store failure keeps sessions", func(t *testing.T) {
		f := newAccountFixture(t)
		f.inTx(ctx, false)
		user := models.NewUser(uuid.New(), "bia@example.org", "Bia", models.RolePadrao)
		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.users.On("UpdateRole", ctx, user.ID, models.RoleAdmin).Return(errors.New("connection reset"))

		_, err := f.service.UpdateRole(ctx, testActor, user.ID, UpdateRoleInput{Role: "admin"})
		assert.ErrorIs(t, err, services.ErrStoreUnavailable)
		f.sessions.AssertNotCalled(t, "InvalidateUser", mock.Anything)
	})
}

func TestAccountService_UpdateEmpresa(t *testing.T) {
	ctx := context.Background()

	t.Run("move to a caps organization", func(t *testing.T) {
		f := newAccountFixture(t)
		f.inTx(ctx, true)
		abrigo := models.EmpresaAbrigo
		oldEmpresa := uuid.New()
		user := models.NewUser(uuid.New(), "ana@example.org", "Ana", models.RolePadrao)
		user.EmpresaID = &oldEmpresa
		user.EmpresaType = &abrigo
		caps := models.NewEmpresa("CAPS Centro", models.EmpresaCAPS)

		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.empresas.On("GetByID", ctx, caps.ID).Return(caps, nil)
		f.users.On("UpdateEmpresa", ctx, user.ID, &caps.ID).Return(nil)
		f.sessions.On("InvalidateUser", user.ID).Return(1)
		f.recorder.On("LogUserEmpresaChanged", user.ID, &oldEmpresa, &caps.ID, testActor).Return(nil)

		got, err := f.service.UpdateEmpresa(ctx, testActor, user.ID, UpdateEmpresaInput{EmpresaID: &caps.ID})
		require.NoError(t, err)
		require.NotNil(t, got.EmpresaType)
		assert.Equal(t, models.EmpresaCAPS, *got.EmpresaType)
		assert.Equal(t, caps.ID, *got.EmpresaID)

		f.sessions.AssertExpectations(t)
		f.recorder.AssertExpectations(t)
	})

	t.Run("detach", func(t *testing.T) {
		f := newAccountFixture(t)
		f.inTx(ctx, true)
		abrigo := models.EmpresaAbrigo
		oldEmpresa := uuid.New()
		user := models.NewUser(uuid.New(), "caio@example.org", "Caio", models.RoleOrgao)
		user.EmpresaID = &oldEmpresa
		user.EmpresaType = &abrigo

		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.users.On("UpdateEmpresa", ctx, user.ID, (*uuid.UUID)(nil)).Return(nil)
		f.sessions.On("InvalidateUser", user.ID).Return(0)
		f.recorder.On("LogUserEmpresaChanged", user.ID, &oldEmpresa, (*uuid.UUID)(nil), testActor).Return(nil)

		got, err := f.service.UpdateEmpresa(ctx, testActor, user.ID, UpdateEmpresaInput{})
		require.NoError(t, err)
		assert.Nil(t, got.EmpresaID)
		assert.Nil(t, got.EmpresaType)
		f.empresas.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown organization", func(t *testing.T) {
		f := newAccountFixture(t)
		f.inTx(ctx, false)
		user := models.NewUser(uuid.New(), "ana@example.org", "Ana", models.RolePadrao)
		missing := uuid.New()

		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.empresas.On("GetByID", ctx, missing).Return(nil, fmt.Errorf("empresa %s: %w", missing, repositories.ErrNotFound))

		_, err := f.service.UpdateEmpresa(ctx, testActor, user.ID, UpdateEmpresaInput{EmpresaID: &missing})
		assert.ErrorIs(t, err, services.ErrEmpresaNotFound)
		assert.True(t, services.IsNotFoundError(err))
		f.users.AssertNotCalled(t, "UpdateEmpresa", mock.Anything, mock.Anything, mock.Anything)
		f.sessions.AssertNotCalled(t, "InvalidateUser", mock.Anything)
		f.tx.AssertExpectations(t)
	})

	t.Run("organization with an unknown type", func(t *testing.T) {
		f := newAccountFixture(t)
		f.inTx(ctx, false)
		user := models.NewUser(uuid.New(), "ana@example.org", "Ana", models.RolePadrao)
		hospital := models.NewEmpresa("Hospital", models.EmpresaType("hospital"))

		f.users.On("GetByID", ctx, user.ID).Return(user, nil)
		f.empresas.On("GetByID", ctx, hospital.ID).Return(hospital, nil)

		_, err := f.service.UpdateEmpresa(ctx, testActor, user.ID, UpdateEmpresaInput{EmpresaID: &hospital.ID})
		assert.ErrorIs(t, err, services.ErrUnknownEmpresaType)
		f.users.AssertNotCalled(t, "UpdateEmpresa", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAccountService_Empresas(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		f := newAccountFixture(t)
		f.empresas.On("Create", ctx, mock.MatchedBy(func(e *models.Empresa) bool {
			return e.Nome == "Casa Lar" && e.Tipo == models.EmpresaAbrigo
		})).Return(nil)
		f.recorder.On("LogEmpresaCreated", mock.AnythingOfType("*models.Empresa"), testActor).Return(nil)

		e, err := f.service.CreateEmpresa(ctx, testActor, CreateEmpresaInput{Nome: "Casa Lar", Tipo: "abrigo"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, e.ID)
		f.recorder.AssertExpectations(t)
	})

	t.Run("create rejects unknown type", func(t *testing.T) {
		f := newAccountFixture(t)

		_, err := f.service.CreateEmpresa(ctx, testActor, CreateEmpresaInput{Nome: "Hospital", Tipo: "hospital"})
		assert.ErrorIs(t, err, services.ErrUnknownEmpresaType)
		f.empresas.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("create requires a name", func(t *testing.T) {
		f := newAccountFixture(t)

		_, err := f.service.CreateEmpresa(ctx, testActor, CreateEmpresaInput{Tipo: "caps"})
		assert.True(t, services.IsValidationError(err))
		assert.Contains(t, services.GetErrorDetails(err), "fields")
	})

	t.Run("list", func(t *testing.T) {
		f := newAccountFixture(t)
		f.empresas.On("List", ctx, 20, 0).Return(nil, nil)

		got, err := f.service.ListEmpresas(ctx, 20, 0)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("list store failure", func(t *testing.T) {
		f := newAccountFixture(t)
		f.empresas.On("List", ctx, 20, 40).Return(nil, errors.New("too many connections"))

		_, err := f.service.ListEmpresas(ctx, 20, 40)
		assert.ErrorIs(t, err, services.ErrStoreUnavailable)
	})
}

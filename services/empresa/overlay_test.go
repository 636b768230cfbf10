package empresa

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/rede-abrigo/admin-backend/internal/observability"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"go.uber.org/zap/zaptest"
)

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

func abrigoRecord() *models.EmpresaPermission {
	return models.NewEmpresaPermission(models.EmpresaAbrigo, models.SectionPermissions{
		models.SectionAcolhidos: {
			models.ActionView:   true,
			models.ActionCreate: true,
			models.ActionDelete: false,
		},
	})
}

func newOverlay(t *testing.T) (*Overlay, *MockEmpresaPermissionRepository) {
	t.Helper()
	repo := new(MockEmpresaPermissionRepository)
	return NewOverlay(repo, zaptest.NewLogger(t), nil), repo
}

// An abrigo session may create acolhidos but not delete them, and sections
// missing from the record are closed.
func TestOverlay_AbrigoSections(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx := context.Background()
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).Return(abrigoRecord(), nil).Once()

	require.NotNil(t, overlay.LoadForType(ctx, models.EmpresaAbrigo))

	assert.True(t, overlay.Can(models.SectionAcolhidos, models.ActionCreate))
	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionDelete))
	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionEdit))
	assert.False(t, overlay.Can(models.SectionDocumentos, models.ActionView))
	assert.False(t, overlay.Can(models.SectionRelatorios, models.ActionExport))

	typ, loaded := overlay.Loaded()
	assert.Equal(t, models.EmpresaAbrigo, typ)
	assert.True(t, loaded)
	assert.False(t, overlay.Degraded())
}

func TestOverlay_MemoizedPerType(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx := context.Background()
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).Return(abrigoRecord(), nil).Once()

	first := overlay.LoadForType(ctx, models.EmpresaAbrigo)
	second := overlay.LoadForType(ctx, models.EmpresaAbrigo)

	assert.Same(t, first, second)
	repo.AssertNumberOfCalls(t, "GetByType", 1)
}

func TestOverlay_CanBeforeLoad(t *testing.T) {
	overlay, _ := newOverlay(t)

	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionView))
	assert.Empty(t, overlay.Permissions())
	_, loaded := overlay.Loaded()
	assert.False(t, loaded)
}

func TestOverlay_AbsentRecordIsMemoizedAsEmpty(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx := context.Background()
	repo.On("GetByType", mock.Anything, models.EmpresaOutro).Return(nil, fmt.Errorf("get: %w", repositories.ErrNotFound)).Once()

	assert.Nil(t, overlay.LoadForType(ctx, models.EmpresaOutro))
	assert.Nil(t, overlay.LoadForType(ctx, models.EmpresaOutro))

	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionView))
	assert.False(t, overlay.Degraded())
	repo.AssertNumberOfCalls(t, "GetByType", 1)
}

// A caps organization with no persisted record cannot delete acolhidos, and asking does not panic.
func TestOverlay_CapsWithoutRecordDeniesAcolhidosDelete(t *testing.T) {
	overlay, repo := newOverlay(t)
	repo.On("GetByType", mock.Anything, models.EmpresaCAPS).
		Return(nil, fmt.Errorf("empresa permission caps: %w", repositories.ErrNotFound)).Once()

	assert.Nil(t, overlay.LoadForType(context.Background(), models.EmpresaCAPS))

	assert.NotPanics(t, func() {
		assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionDelete))
	})
	typ, loaded := overlay.Loaded()
	assert.Equal(t, models.EmpresaCAPS, typ)
	assert.True(t, loaded)
}

func TestOverlay_FailureThenReload(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx := context.Background()
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).Return(nil, errors.New("connection refused")).Once()
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).Return(abrigoRecord(), nil).Once()

	assert.Nil(t, overlay.LoadForType(ctx, models.EmpresaAbrigo))
	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionView))
	assert.True(t, overlay.Degraded())
	_, loaded := overlay.Loaded()
	assert.False(t, loaded)

	require.NotNil(t, overlay.LoadForType(ctx, models.EmpresaAbrigo))
	assert.True(t, overlay.Can(models.SectionAcolhidos, models.ActionView))
	assert.False(t, overlay.Degraded())
	repo.AssertExpectations(t)
}

func TestOverlay_CancelledLoadIsDiscarded(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx, cancel := context.WithCancel(context.Background())

	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).
		Run(func(mock.Arguments) { cancel() }).
		Return(abrigoRecord(), nil).Once()

	assert.Nil(t, overlay.LoadForType(ctx, models.EmpresaAbrigo))

	typ, loaded := overlay.Loaded()
	assert.Equal(t, models.EmpresaType(""), typ)
	assert.False(t, loaded)
	assert.False(t, overlay.Degraded())
	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionView))
}

func TestOverlay_CancelledLoadKeepsPreviousType(t *testing.T) {
	overlay, repo := newOverlay(t)
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).Return(abrigoRecord(), nil).Once()
	require.NotNil(t, overlay.LoadForType(context.Background(), models.EmpresaAbrigo))

	ctx, cancel := context.WithCancel(context.Background())
	repo.On("GetByType", mock.Anything, models.EmpresaCAPS).
		Run(func(mock.Arguments) { cancel() }).
		Return(models.NewEmpresaPermission(models.EmpresaCAPS, nil), nil).Once()

	assert.Nil(t, overlay.LoadForType(ctx, models.EmpresaCAPS))

	typ, loaded := overlay.Loaded()
	assert.Equal(t, models.EmpresaAbrigo, typ)
	assert.True(t, loaded)
	assert.True(t, overlay.Can(models.SectionAcolhidos, models.ActionCreate))
}

func TestOverlay_ResetDuringLoadDropsResult(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx := context.Background()

	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).
		Run(func(mock.Arguments) { overlay.Reset() }).
		Return(abrigoRecord(), nil).Once()

	assert.Nil(t, overlay.LoadForType(ctx, models.EmpresaAbrigo))
	_, loaded := overlay.Loaded()
	assert.False(t, loaded)
	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionView))
}

func TestOverlay_TypeSwitchDropsMemo(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx := context.Background()
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).Return(abrigoRecord(), nil).Twice()
	repo.On("GetByType", mock.Anything, models.EmpresaCAPS).Return(capsRecord(), nil).Once()

	overlay.LoadForType(ctx, models.EmpresaAbrigo)
	overlay.LoadForType(ctx, models.EmpresaCAPS)

	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionCreate))
	assert.True(t, overlay.Can(models.SectionAgendamentos, models.ActionView))

	overlay.LoadForType(ctx, models.EmpresaAbrigo)
	assert.True(t, overlay.Can(models.SectionAcolhidos, models.ActionCreate))
	repo.AssertExpectations(t)
}

func capsRecord() *models.EmpresaPermission {
	return models.NewEmpresaPermission(models.EmpresaCAPS, models.SectionPermissions{
		models.SectionAgendamentos: {models.ActionView: true},
	})
}

// The first type's fetch returns while the second is still in flight.
func TestOverlay_LatestRequestWinsWhenEarlierReturnsFirst(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx := context.Background()

	abrigoStarted, releaseAbrigo := make(chan struct{}), make(chan struct{})
	capsStarted, releaseCaps := make(chan struct{}), make(chan struct{})

	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).
		Run(func(mock.Arguments) { close(abrigoStarted); <-releaseAbrigo }).
		Return(abrigoRecord(), nil).Once()
	repo.On("GetByType", mock.Anything, models.EmpresaCAPS).
		Run(func(mock.Arguments) { close(capsStarted); <-releaseCaps }).
		Return(capsRecord(), nil).Once()

	abrigoDone := make(chan *models.EmpresaPermission)
	go func() { abrigoDone <- overlay.LoadForType(ctx, models.EmpresaAbrigo) }()
	<-abrigoStarted

	capsDone := make(chan *models.EmpresaPermission)
	go func() { capsDone <- overlay.LoadForType(ctx, models.EmpresaCAPS) }()
	<-capsStarted

	close(releaseAbrigo)
	assert.Nil(t, <-abrigoDone)
	_, loaded := overlay.Loaded()
	assert.False(t, loaded)

	close(releaseCaps)
	require.NotNil(t, <-capsDone)

	typ, loaded := overlay.Loaded()
	assert.Equal(t, models.EmpresaCAPS, typ)
	assert.True(t, loaded)
	assert.True(t, overlay.Can(models.SectionAgendamentos, models.ActionView))
	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionCreate))
}

// The second type's fetch completes while the first is still in flight.
func TestOverlay_LatestRequestWinsWhenLaterReturnsFirst(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx := context.Background()

	repo.On("GetByType", mock.Anything, models.EmpresaCAPS).Return(capsRecord(), nil).Once()
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).
		Run(func(mock.Arguments) {
			require.NotNil(t, overlay.LoadForType(ctx, models.EmpresaCAPS))
		}).
		Return(abrigoRecord(), nil).Once()

	assert.Nil(t, overlay.LoadForType(ctx, models.EmpresaAbrigo))

	typ, loaded := overlay.Loaded()
	assert.Equal(t, models.EmpresaCAPS, typ)
	assert.True(t, loaded)
	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionCreate))
}

func TestOverlay_UnknownTypeSkipsStore(t *testing.T) {
	overlay, repo := newOverlay(t)

	assert.Nil(t, overlay.LoadForType(context.Background(), models.EmpresaType("hospital")))
	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionView))
	repo.AssertNotCalled(t, "GetByType", mock.Anything, mock.Anything)
}

func TestOverlay_ResetDiscards(t *testing.T) {
	overlay, repo := newOverlay(t)
	ctx := context.Background()
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).Return(abrigoRecord(), nil).Twice()

	overlay.LoadForType(ctx, models.EmpresaAbrigo)
	overlay.Reset()

	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionView))
	typ, loaded := overlay.Loaded()
	assert.Empty(t, typ)
	assert.False(t, loaded)

	overlay.LoadForType(ctx, models.EmpresaAbrigo)
	repo.AssertNumberOfCalls(t, "GetByType", 2)
}

func TestOverlay_PermissionsIsACopy(t *testing.T) {
	overlay, repo := newOverlay(t)
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).Return(abrigoRecord(), nil)
	overlay.LoadForType(context.Background(), models.EmpresaAbrigo)

	snapshot := overlay.Permissions()
	snapshot[models.SectionAcolhidos][models.ActionDelete] = true

	assert.False(t, overlay.Can(models.SectionAcolhidos, models.ActionDelete))
}

func TestOverlay_ConcurrentCan(t *testing.T) {
	overlay, repo := newOverlay(t)
	repo.On("GetByType", mock.Anything, models.EmpresaAbrigo).Return(abrigoRecord(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			overlay.LoadForType(context.Background(), models.EmpresaAbrigo)
			_ = overlay.Can(models.SectionAcolhidos, models.ActionView)
		}()
	}
	wg.Wait()

	assert.True(t, overlay.Can(models.SectionAcolhidos, models.ActionView))
}

func TestOverlay_RecordsLoadOutcomes(t *testing.T) {
	repo := new(MockEmpresaPermissionRepository)
	metrics := observability.NewMetrics()
	overlay := NewOverlay(repo, zaptest.NewLogger(t), metrics)
	ctx := context.Background()

	repo.On("GetByType", mock.Anything, models.EmpresaCREAS).Return(nil, errors.New("timeout")).Once()
	repo.On("GetByType", mock.Anything, models.EmpresaCREAS).Return(nil, repositories.ErrNotFound).Once()

	overlay.LoadForType(ctx, models.EmpresaCREAS)
	overlay.LoadForType(ctx, models.EmpresaCREAS)

	assert.Equal(t, 2, testutil.CollectAndCount(metrics.Registry(), "empresa_overlay_loads_total"))
}

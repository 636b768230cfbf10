// Package empresa holds the section-level permission overlay that an
// organization's type imposes on the people who work there.
package empresa

import (
	"context"
	"errors"
	"sync"

	"github.com/rede-abrigo/admin-backend/internal/observability"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services"
	"go.uber.org/zap"
)

// Overlay memoizes the EmpresaPermission record of one organization type for
// the lifetime of a session. It is owned by exactly one session.
//
// State only changes when a fetch completes. The mutex is never held across a
// store round trip; a fetch that returns after its context was cancelled, or
// after Reset or another committed load, is dropped. When loads for different
// types overlap, the most recently requested type wins regardless of which
// fetch returns first.
type Overlay struct {
	repo    repositories.EmpresaPermissionRepository
	logger  *zap.Logger
	metrics *observability.Metrics

	mu         sync.Mutex
	active     models.EmpresaType
	requested  models.EmpresaType
	record     *models.EmpresaPermission
	loaded     bool
	degraded   bool
	generation uint64
}

// NewOverlay creates an empty overlay. metrics may be nil.
func NewOverlay(repo repositories.EmpresaPermissionRepository, logger *zap.Logger, metrics *observability.Metrics) *Overlay {
	return &Overlay{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
	}
}

// LoadForType returns the overlay record of empresaType, fetching it on first use.
// It returns nil when the type is unknown, when no record exists, when the
// store fails, or when ctx is cancelled before the fetch completes. Only a
// successful fetch (including "no record") is memoized.
func (o *Overlay) LoadForType(ctx context.Context, empresaType models.EmpresaType) *models.EmpresaPermission {
	if !empresaType.Valid() {
		o.logger.Warn("unknown empresa type, overlay grants nothing",
			zap.String("empresa_type", string(empresaType)),
			zap.NamedError("reason", services.ErrUnknownEmpresaType))
		o.Reset()
		return nil
	}

	o.mu.Lock()
	o.requested = empresaType
	if o.active == empresaType && o.loaded {
		record := o.record
		o.mu.Unlock()
		return record
	}
	generation := o.generation
	o.mu.Unlock()

	record, err := o.repo.GetByType(ctx, empresaType)

	if ctx.Err() != nil {
		o.metrics.RecordOverlayLoad(observability.LoadDiscarded)
		o.logger.Debug("overlay load cancelled, result discarded",
			zap.String("empresa_type", string(empresaType)))
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if generation != o.generation {
		// Another load committed or the overlay was reset while this one was in flight.
		if o.active == empresaType && o.loaded {
			return o.record
		}
		o.metrics.RecordOverlayLoad(observability.LoadDiscarded)
		return nil
	}
	if o.requested != empresaType {
		// A later call asked for another type; its result is the one to keep.
		o.metrics.RecordOverlayLoad(observability.LoadDiscarded)
		o.logger.Debug("overlay load superseded, result discarded",
			zap.String("empresa_type", string(empresaType)),
			zap.String("requested", string(o.requested)))
		return nil
	}
	o.generation++
	o.active = empresaType

	switch {
	case err == nil:
		o.record = record
		o.loaded = true
		o.degraded = false
		o.metrics.RecordOverlayLoad(observability.LoadLoaded)
		return record

	case errors.Is(err, repositories.ErrNotFound):
		o.record = nil
		o.loaded = true
		o.degraded = false
		o.metrics.RecordOverlayLoad(observability.LoadAbsent)
		o.logger.Info("no overlay configured for empresa type",
			zap.String("empresa_type", string(empresaType)))
		return nil

	default:
		o.record = nil
		o.loaded = false
		o.degraded = true
		o.metrics.RecordOverlayLoad(observability.LoadFailed)
		o.logger.Error("failed to load empresa overlay",
			zap.Error(err),
			zap.String("empresa_type", string(empresaType)))
		return nil
	}
}

// Can reports whether the loaded overlay allows action on section.
// Anything not loaded, absent or outside the catalog is false.
func (o *Overlay) Can(section models.Section, action models.Action) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.record.Can(section, action)
}

// Permissions returns a copy of the loaded section map, empty when nothing is loaded
func (o *Overlay) Permissions() models.SectionPermissions {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := models.SectionPermissions{}
	if o.record == nil {
		return out
	}
	for section, actions := range o.record.Permissions {
		inner := make(map[models.Action]bool, len(actions))
		for action, allowed := range actions {
			inner[action] = allowed
		}
		out[section] = inner
	}
	return out
}

// Reset discards the memo. Loads in flight are dropped when they return.
func (o *Overlay) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = ""
	o.requested = ""
	o.record = nil
	o.loaded = false
	o.degraded = false
	o.generation++
}

// Loaded returns the memoized type and whether a fetch for it has completed
func (o *Overlay) Loaded() (models.EmpresaType, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active, o.loaded
}

// Degraded reports whether the last fetch failed and no reload has succeeded since
func (o *Overlay) Degraded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.degraded
}

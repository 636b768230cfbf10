package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"go.uber.org/zap"
)

// Actor identifies who made an administrative change and from where
type Actor struct {
	UserID    uuid.UUID
	RequestID string
	IPAddress string
	UserAgent string
}

// AuditEvent represents an event to be audited
type AuditEvent struct {
	Log *models.AuditLog
}

// AuditService writes audit logs asynchronously through a bounded worker pool
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *AuditEvent
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	if config.BufferSize <= 0 || config.WorkerCount <= 0 {
		config = DefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *AuditEvent, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop closes the queue and waits for pending events to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("audit service not running")
	}
	s.stopped = true
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an event without blocking. A full buffer drops the event.
func (s *AuditService) LogEvent(event *AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- event:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(event.Log.Action)),
			zap.String("resource_type", event.Log.ResourceType))
		return fmt.Errorf("audit event buffer full")
	}
}

// LogEventBlocking waits until the event is queued or ctx is cancelled
func (s *AuditService) LogEventBlocking(ctx context.Context, event *AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return fmt.Errorf("audit service not running")
	}

	select {
	case s.eventChan <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return fmt.Errorf("audit service stopped")
	}
}

func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		if err := s.processEvent(event); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(event.Log.Action)),
				zap.String("request_id", event.Log.RequestID))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

func (s *AuditService) processEvent(event *AuditEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, event.Log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

func newLog(action models.AuditAction, resourceType string, actor Actor) *models.AuditLog {
	return models.NewAuditLog(action, resourceType).
		WithActor(actor.UserID).
		WithRequest(actor.RequestID, actor.IPAddress, actor.UserAgent)
}

// LogPermissionCreated records a new field permission
func (s *AuditService) LogPermissionCreated(p *models.Permission, actor Actor) error {
	log := newLog(models.AuditActionPermissionCreated, "permission", actor).
		WithResource(p.ID).
		WithDetails(map[string]interface{}{
			"role":            p.Role,
			"table":           p.Table,
			"field":           p.Field,
			"permission_type": p.PermissionType,
		})
	return s.LogEvent(&AuditEvent{Log: log})
}

// LogPermissionDeleted records the removal of a field permission
func (s *AuditService) LogPermissionDeleted(p *models.Permission, actor Actor) error {
	log := newLog(models.AuditActionPermissionDeleted, "permission", actor).
		WithResource(p.ID).
		WithDetails(map[string]interface{}{
			"role":            p.Role,
			"table":           p.Table,
			"field":           p.Field,
			"permission_type": p.PermissionType,
		})
	return s.LogEvent(&AuditEvent{Log: log})
}

// LogRolePermissionsReplaced records a bulk replace of one role's grants on a table
func (s *AuditService) LogRolePermissionsReplaced(role models.UserRole, table string, removed int64, granted int, actor Actor) error {
	log := newLog(models.AuditActionRolePermissionsReplaced, "permission", actor).
		WithDetails(map[string]interface{}{
			"role":    role,
			"table":   table,
			"removed": removed,
			"granted": granted,
		})
	return s.LogEvent(&AuditEvent{Log: log})
}

// LogEmpresaPermissionUpdated records an overlay upsert
func (s *AuditService) LogEmpresaPermissionUpdated(ep *models.EmpresaPermission, actor Actor) error {
	log := newLog(models.AuditActionEmpresaPermissionUpdated, "empresa_permission", actor).
		WithResource(ep.ID).
		WithDetails(map[string]interface{}{
			"empresa_type": ep.EmpresaType,
			"permissions":  ep.Permissions,
		})
	return s.LogEvent(&AuditEvent{Log: log})
}

// LogUserRoleChanged records a role change of one user
func (s *AuditService) LogUserRoleChanged(userID uuid.UUID, from, to models.UserRole, actor Actor) error {
	log := newLog(models.AuditActionUserRoleChanged, "user", actor).
		WithResource(userID).
		WithDetails(map[string]interface{}{
			"from": from,
			"to":   to,
		})
	return s.LogEvent(&AuditEvent{Log: log})
}

// LogUserEmpresaChanged records a user moving between organizations. A nil side means none.
func (s *AuditService) LogUserEmpresaChanged(userID uuid.UUID, from, to *uuid.UUID, actor Actor) error {
	log := newLog(models.AuditActionUserEmpresaChanged, "user", actor).
		WithResource(userID).
		WithDetails(map[string]interface{}{
			"from": from,
			"to":   to,
		})
	return s.LogEvent(&AuditEvent{Log: log})
}

// LogEmpresaCreated records a new organization
func (s *AuditService) LogEmpresaCreated(e *models.Empresa, actor Actor) error {
	log := newLog(models.AuditActionEmpresaCreated, "empresa", actor).
		WithResource(e.ID).
		WithDetails(map[string]interface{}{
			"nome": e.Nome,
			"tipo": e.Tipo,
		})
	return s.LogEvent(&AuditEvent{Log: log})
}

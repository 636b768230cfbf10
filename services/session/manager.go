// Package session keeps the per-login state of authenticated users: the role
// resolved at sign-in, the organization type and the overlay it owns.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/internal/observability"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services"
	"github.com/rede-abrigo/admin-backend/services/empresa"
	"go.uber.org/zap"
)

// Session is the state of one login. Only Overlay changes after Establish.
type Session struct {
	ID          string
	UserID      uuid.UUID
	Email       string
	Role        models.UserRole
	EmpresaID   *uuid.UUID
	EmpresaType *models.EmpresaType
	Overlay     *empresa.Overlay
	CreatedAt   time.Time
}

// IsAdmin reports whether the session's role unlocks administrative navigation
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role.Privileged()
}

// Config sizes the session cache
type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// Manager creates, looks up and ends sessions
type Manager struct {
	users    repositories.UserRepository
	overlays repositories.EmpresaPermissionRepository
	cache    *Cache
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewManager creates a new Manager. metrics may be nil.
func NewManager(users repositories.UserRepository, overlays repositories.EmpresaPermissionRepository, cfg Config, logger *zap.Logger, metrics *observability.Metrics) *Manager {
	m := &Manager{
		users:    users,
		overlays: overlays,
		logger:   logger,
		metrics:  metrics,
	}
	m.cache = NewCache(cfg.MaxEntries, cfg.TTL, func(s *Session) {
		s.Overlay.Reset()
	})
	return m
}

// Establish resolves the role and organization type of userID and stores a
// fresh session under sessionID, replacing any previous one. The session's
// overlay is loaded eagerly; a failed load leaves it degraded, not the session.
func (m *Manager) Establish(ctx context.Context, sessionID string, userID uuid.UUID) (*Session, error) {
	if sessionID == "" {
		sessionID = userID.String()
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		m.logger.Error("failed to resolve session user", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, services.WrapUnavailable("failed to resolve user role", err)
	}

	if !user.Role.Valid() {
		m.logger.Warn("session user has unknown role",
			zap.String("user_id", userID.String()),
			zap.String("role", string(user.Role)))
	}

	s := &Session{
		ID:          sessionID,
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		EmpresaID:   user.EmpresaID,
		EmpresaType: user.EmpresaType,
		Overlay:     empresa.NewOverlay(m.overlays, m.logger, m.metrics),
		CreatedAt:   time.Now(),
	}
	if s.EmpresaType != nil {
		s.Overlay.LoadForType(ctx, *s.EmpresaType)
	}

	m.cache.Set(s)
	m.metrics.SetActiveSessions(m.cache.Len())

	m.logger.Info("session established",
		zap.String("user_id", userID.String()),
		zap.String("role", string(s.Role)),
		zap.Bool("overlay_degraded", s.Overlay.Degraded()))

	return s, nil
}

// Get returns the live session stored under sessionID
func (m *Manager) Get(sessionID string) (*Session, error) {
	s := m.cache.Get(sessionID)
	if s == nil {
		return nil, services.ErrSessionNotFound
	}
	return s, nil
}

// EnsureOverlay retries the overlay load when an earlier attempt failed or was cancelled
func (m *Manager) EnsureOverlay(ctx context.Context, s *Session) {
	if s.EmpresaType == nil {
		return
	}
	if typ, loaded := s.Overlay.Loaded(); loaded && typ == *s.EmpresaType {
		return
	}
	s.Overlay.LoadForType(ctx, *s.EmpresaType)
}

// End discards a session and its overlay. It reports whether the session existed.
func (m *Manager) End(sessionID string) bool {
	ended := m.cache.Delete(sessionID)
	m.metrics.SetActiveSessions(m.cache.Len())
	if ended {
		m.logger.Info("session ended", zap.String("session_id", sessionID))
	}
	return ended
}

// InvalidateUser ends every session of userID, used when the user's role or
// organization changes. It returns how many sessions were ended.
func (m *Manager) InvalidateUser(userID uuid.UUID) int {
	n := m.cache.DeleteWhere(func(s *Session) bool { return s.UserID == userID })
	m.metrics.SetActiveSessions(m.cache.Len())
	if n > 0 {
		m.logger.Info("invalidated user sessions", zap.String("user_id", userID.String()), zap.Int("count", n))
	}
	return n
}

// Stats returns session cache statistics
func (m *Manager) Stats() CacheStats {
	return m.cache.Stats()
}

// StartCleanupWorker sweeps expired sessions every interval until stopCh is closed
func (m *Manager) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	m.cache.StartCleanupWorker(interval, stopCh, func(removed int) {
		m.metrics.SetActiveSessions(m.cache.Len())
		if removed > 0 {
			m.logger.Debug("expired sessions removed", zap.Int("count", removed))
		}
	})
}

// Close ends every session
func (m *Manager) Close() {
	m.cache.Clear()
	m.metrics.SetActiveSessions(0)
}

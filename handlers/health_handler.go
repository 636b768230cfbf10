package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/rede-abrigo/admin-backend/services/audit"
	"github.com/rede-abrigo/admin-backend/services/session"
	"github.com/rede-abrigo/admin-backend/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string              `json:"status"`
	Timestamp string              `json:"timestamp"`
	Checks    map[string]string   `json:"checks,omitempty"`
	Sessions  *session.CacheStats `json:"sessions,omitempty"`
}

// AuditStatus reports whether the audit writer is running
type AuditStatus interface {
	GetStats() audit.Stats
}

// SessionStats reports the size of the session cache
type SessionStats interface {
	Stats() session.CacheStats
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db       *sql.DB
	audit    AuditStatus
	sessions SessionStats
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. audit and sessions may be nil.
func NewHealthHandler(db *sql.DB, audit AuditStatus, sessions SessionStats, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		audit:    audit,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: 200 whenever the process serves requests
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness fails when the permission store cannot be reached, since every
// permission check would fail closed.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	// A stopped audit writer drops events but does not block permission checks.
	if h.audit != nil {
		if h.audit.GetStats().Started {
			checks["audit"] = "running"
		} else {
			checks["audit"] = "stopped"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if h.sessions != nil {
		stats := h.sessions.Stats()
		response.Sessions = &stats
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

// checkDatabase checks database connectivity
func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}

	if err := h.db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	return h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
}

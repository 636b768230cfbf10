package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/services"
	"github.com/rede-abrigo/admin-backend/utils"
	"go.uber.org/zap"
)

const (
	defaultAuditLimit  = 50
	maxAuditLimit      = 200
	defaultAuditWindow = 7 * 24 * time.Hour
)

// AuditLogReader reads the administrative audit trail
type AuditLogReader interface {
	GetByActorID(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*models.AuditLog, error)
	GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.AuditLog, error)
}

// AuditLogHandler serves the audit trail of permission changes
type AuditLogHandler struct {
	logs   AuditLogReader
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(logs AuditLogReader, logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		logs:   logs,
		logger: logger,
	}
}

// HandleList handles GET /api/v1/admin/audit-logs
// Filters: actor_id, or from/to (RFC 3339, default the last seven days). Paged by limit/offset.
func (h *AuditLogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, offset, err := parsePage(q.Get("limit"), q.Get("offset"))
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	var logs []*models.AuditLog
	if actor := q.Get("actor_id"); actor != "" {
		actorID, perr := uuid.Parse(actor)
		if perr != nil {
			_ = utils.WriteBadRequest(w, "Invalid actor_id format", nil)
			return
		}
		logs, err = h.logs.GetByActorID(r.Context(), actorID, limit, offset)
	} else {
		end := time.Now().UTC()
		start := end.Add(-defaultAuditWindow)
		if v := q.Get("from"); v != "" {
			if start, err = time.Parse(time.RFC3339, v); err != nil {
				_ = utils.WriteBadRequest(w, "Invalid from timestamp, expected RFC 3339", nil)
				return
			}
		}
		if v := q.Get("to"); v != "" {
			if end, err = time.Parse(time.RFC3339, v); err != nil {
				_ = utils.WriteBadRequest(w, "Invalid to timestamp, expected RFC 3339", nil)
				return
			}
		}
		if end.Before(start) {
			_ = utils.WriteBadRequest(w, "to must not be before from", nil)
			return
		}
		logs, err = h.logs.GetByDateRange(r.Context(), start, end, limit, offset)
	}
	if err != nil {
		HandleServiceError(w, services.WrapUnavailable("failed to read audit logs", err), h.logger)
		return
	}

	if logs == nil {
		logs = []*models.AuditLog{}
	}
	_ = utils.WriteOK(w, logs)
}

func parsePage(limitStr, offsetStr string) (int, int, error) {
	limit := defaultAuditLimit
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return 0, 0, fmt.Errorf("limit must be an integer")
		}
		if err := utils.ValidateNumericRange(n, "limit", 1, maxAuditLimit); err != nil {
			return 0, 0, err
		}
		limit = n
	}

	offset := 0
	if offsetStr != "" {
		n, err := strconv.Atoi(offsetStr)
		if err != nil {
			return 0, 0, fmt.Errorf("offset must be an integer")
		}
		if err := utils.ValidateNumericRange(n, "offset", 0, math.MaxInt32); err != nil {
			return 0, 0, err
		}
		offset = n
	}
	return limit, offset, nil
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/middleware"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/services/navigation"
	"github.com/rede-abrigo/admin-backend/services/session"
	"github.com/rede-abrigo/admin-backend/utils"
	"go.uber.org/zap"
)

// SessionManager defines the session operations exposed over HTTP
type SessionManager interface {
	Establish(ctx context.Context, sessionID string, userID uuid.UUID) (*session.Session, error)
	End(sessionID string) bool
}

// SessionResponse represents a session in API responses
type SessionResponse struct {
	ID              string                    `json:"id"`
	UserID          uuid.UUID                 `json:"user_id"`
	Email           string                    `json:"email"`
	Role            models.UserRole           `json:"role"`
	IsAdmin         bool                      `json:"is_admin"`
	EmpresaID       *uuid.UUID                `json:"empresa_id,omitempty"`
	EmpresaType     *models.EmpresaType       `json:"empresa_type,omitempty"`
	Sections        models.SectionPermissions `json:"sections"`
	OverlayDegraded bool                      `json:"overlay_degraded"`
	Menu            []navigation.MenuItem     `json:"menu"`
	CreatedAt       string                    `json:"created_at"`
}

// SessionHandler handles sign-in, session lookup and sign-out
type SessionHandler struct {
	sessions SessionManager
	menu     []navigation.MenuItem
	logger   *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions SessionManager, menu []navigation.MenuItem, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		menu:     menu,
		logger:   logger,
	}
}

// HandleCreateSession handles POST /api/v1/session
// Resolves role and organization type afresh, replacing any previous session state.
func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.GetClaimsFromContext(ctx)
	if claims == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	s, err := h.sessions.Establish(ctx, claims.SessionKey(), claims.UserID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, h.toResponse(s))
}

// HandleGetSession handles GET /api/v1/session
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSessionFromContext(r.Context())
	if s == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}
	_ = utils.WriteOK(w, h.toResponse(s))
}

// HandleDeleteSession handles DELETE /api/v1/session
// Ending an unknown session is not an error.
func (h *SessionHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	if !h.sessions.End(claims.SessionKey()) {
		h.logger.Debug("sign-out without live session",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("user_id", claims.UserID.String()))
	}
	utils.WriteNoContent(w)
}

func (h *SessionHandler) toResponse(s *session.Session) SessionResponse {
	isAdmin := s.IsAdmin()
	return SessionResponse{
		ID:              s.ID,
		UserID:          s.UserID,
		Email:           s.Email,
		Role:            s.Role,
		IsAdmin:         isAdmin,
		EmpresaID:       s.EmpresaID,
		EmpresaType:     s.EmpresaType,
		Sections:        s.Overlay.Permissions(),
		OverlayDegraded: s.Overlay.Degraded(),
		Menu:            navigation.VisibleMenu(h.menu, &isAdmin),
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

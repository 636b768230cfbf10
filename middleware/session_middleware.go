package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/services"
	"github.com/rede-abrigo/admin-backend/services/session"
	"github.com/rede-abrigo/admin-backend/utils"
	"go.uber.org/zap"
)

// SessionStore defines the session operations the middleware needs
type SessionStore interface {
	Get(sessionID string) (*session.Session, error)
	Establish(ctx context.Context, sessionID string, userID uuid.UUID) (*session.Session, error)
	EnsureOverlay(ctx context.Context, s *session.Session)
}

// SessionMiddleware attaches the caller's session to the request
type SessionMiddleware struct {
	sessions SessionStore
	logger   *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(sessions SessionStore, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		logger:   logger,
	}
}

// LoadSession looks up the session named by the token and establishes one
// when the server has none (first request after sign-in or a restart).
// It must run after RequireAuth.
func (m *SessionMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			m.logger.Error("claims not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		s, err := m.sessions.Get(claims.SessionKey())
		if err != nil || s.UserID != claims.UserID {
			s, err = m.sessions.Establish(ctx, claims.SessionKey(), claims.UserID)
			if err != nil {
				m.writeSessionError(w, requestID, claims, err)
				return
			}
		}

		m.sessions.EnsureOverlay(ctx, s)

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, s)))
	})
}

func (m *SessionMiddleware) writeSessionError(w http.ResponseWriter, requestID string, claims *Claims, err error) {
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("user_id", claims.UserID.String()),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		m.logger.Warn("authenticated user has no profile", fields...)
		_ = utils.WriteForbidden(w, "No profile registered for this account")
	case services.IsUnavailableError(err):
		m.logger.Error("session could not be established", fields...)
		_ = utils.WriteServiceUnavailable(w, "Permission store unavailable")
	default:
		m.logger.Error("session could not be established", fields...)
		_ = utils.WriteInternalServerError(w, "Failed to establish session")
	}
}

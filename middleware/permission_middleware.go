package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services/permission"
	"github.com/rede-abrigo/admin-backend/utils"
	"go.uber.org/zap"
)

// RoleLookup resolves the current role of a user
type RoleLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// PermissionMiddleware enforces role, field and section permissions on routes
type PermissionMiddleware struct {
	checker permission.Checker
	users   RoleLookup
	logger  *zap.Logger
}

// NewPermissionMiddleware creates a new PermissionMiddleware
func NewPermissionMiddleware(checker permission.Checker, users RoleLookup, logger *zap.Logger) *PermissionMiddleware {
	return &PermissionMiddleware{
		checker: checker,
		users:   users,
		logger:  logger,
	}
}

// RequireAdmin admits only admin and master users. The role is read from the
// store on every request so a demotion takes effect without a new login.
func (m *PermissionMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		userID := GetUserIDFromContext(ctx)
		if userID == nil {
			_ = utils.WriteUnauthorized(w, "Authentication required")
			return
		}

		user, err := m.users.GetByID(ctx, *userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}
			m.logger.Error("failed to resolve role for admin route",
				zap.String("request_id", requestID),
				zap.String("user_id", userID.String()),
				zap.Error(err))
			_ = utils.WriteServiceUnavailable(w, "Permission store unavailable")
			return
		}

		if !user.Role.Privileged() {
			m.logger.Warn("non-admin user denied",
				zap.String("request_id", requestID),
				zap.String("user_id", userID.String()),
				zap.String("role", string(user.Role)))
			_ = utils.WriteForbidden(w, "Insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequirePermission admits the request only when the caller's role holds kind on table.field
func (m *PermissionMiddleware) RequirePermission(table, field string, kind models.PermissionKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			userID := GetUserIDFromContext(ctx)
			if userID == nil {
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}

			allowed, err := m.checker.HasPermission(ctx, *userID, table, field, kind)
			if err != nil {
				m.logger.Error("permission check failed",
					zap.String("request_id", requestID),
					zap.String("table", table),
					zap.String("field", field),
					zap.Error(err))
				_ = utils.WriteServiceUnavailable(w, "Permission store unavailable")
				return
			}
			if !allowed {
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSection admits the request only when the overlay of the caller's
// organization type allows action on section. It must run after LoadSession.
func (m *PermissionMiddleware) RequireSection(section models.Section, action models.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := GetSessionFromContext(r.Context())
			if s == nil {
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}

			if !s.Overlay.Can(section, action) {
				m.logger.Debug("section denied by organization type",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("section", string(section)),
					zap.String("action", string(action)),
					zap.Bool("overlay_degraded", s.Overlay.Degraded()))
				_ = utils.WriteForbidden(w, "Section not available for this organization")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

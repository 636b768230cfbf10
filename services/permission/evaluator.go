package permission

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/internal/observability"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services"
	"go.uber.org/zap"
)

// Checker answers field-level permission questions for a user
type Checker interface {
	HasPermission(ctx context.Context, userID uuid.UUID, table, field string, kind models.PermissionKind) (bool, error)
}

// Evaluator decides whether a user's role holds a (table, field, kind) grant.
// Every call goes to the store; nothing is cached.
type Evaluator struct {
	users       repositories.UserRepository
	permissions repositories.PermissionRepository
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// NewEvaluator creates a new Evaluator. metrics may be nil.
func NewEvaluator(users repositories.UserRepository, permissions repositories.PermissionRepository, logger *zap.Logger, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{
		users:       users,
		permissions: permissions,
		logger:      logger,
		metrics:     metrics,
	}
}

// HasPermission reports whether userID may perform kind on table.field.
// A missing user, an unrecognized role or an absent record is a denial with a nil error.
// A store failure returns false together with an error matching services.ErrStoreUnavailable.
func (e *Evaluator) HasPermission(ctx context.Context, userID uuid.UUID, table, field string, kind models.PermissionKind) (bool, error) {
	if strings.TrimSpace(table) == "" || strings.TrimSpace(field) == "" || !kind.Valid() {
		e.record(kind, observability.OutcomeDenied)
		fields := []zap.Field{
			zap.String("user_id", userID.String()),
			zap.String("table", table),
			zap.String("field", field),
			zap.String("kind", string(kind)),
		}
		if !kind.Valid() {
			fields = append(fields, zap.NamedError("reason", services.ErrUnknownKind))
		}
		e.logger.Debug("permission check rejected malformed request", fields...)
		return false, nil
	}

	role, ok, err := e.resolveRole(ctx, userID)
	if err != nil {
		e.record(kind, observability.OutcomeError)
		return false, err
	}
	if !ok {
		e.record(kind, observability.OutcomeDenied)
		return false, nil
	}

	granted, err := e.permissions.Exists(ctx, role, table, field, kind)
	if err != nil {
		e.record(kind, observability.OutcomeError)
		e.logger.Error("permission lookup failed",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("role", string(role)),
			zap.String("table", table),
			zap.String("field", field),
			zap.String("kind", string(kind)))
		return false, services.WrapUnavailable("permission lookup failed", err)
	}

	if !granted {
		e.record(kind, observability.OutcomeDenied)
		e.logger.Debug("permission denied",
			zap.String("user_id", userID.String()),
			zap.String("role", string(role)),
			zap.String("table", table),
			zap.String("field", field),
			zap.String("kind", string(kind)))
		return false, nil
	}

	e.record(kind, observability.OutcomeGranted)
	return true, nil
}

// HasRead is HasPermission with kind read
func (e *Evaluator) HasRead(ctx context.Context, userID uuid.UUID, table, field string) (bool, error) {
	return e.HasPermission(ctx, userID, table, field, models.PermissionRead)
}

// HasWrite is HasPermission with kind write
func (e *Evaluator) HasWrite(ctx context.Context, userID uuid.UUID, table, field string) (bool, error) {
	return e.HasPermission(ctx, userID, table, field, models.PermissionWrite)
}

// HasDelete is HasPermission with kind delete
func (e *Evaluator) HasDelete(ctx context.Context, userID uuid.UUID, table, field string) (bool, error) {
	return e.HasPermission(ctx, userID, table, field, models.PermissionDelete)
}

// HasAdmin is HasPermission with kind admin
func (e *Evaluator) HasAdmin(ctx context.Context, userID uuid.UUID, table, field string) (bool, error) {
	return e.HasPermission(ctx, userID, table, field, models.PermissionAdmin)
}

// TablePermissions returns every field grant the user's role holds on table in one round trip.
// Denial cases yield an empty set; the error contract matches HasPermission.
func (e *Evaluator) TablePermissions(ctx context.Context, userID uuid.UUID, table string) (models.FieldPermissions, error) {
	result := models.FieldPermissions{}
	if strings.TrimSpace(table) == "" {
		return result, nil
	}

	role, ok, err := e.resolveRole(ctx, userID)
	if err != nil || !ok {
		return result, err
	}

	records, err := e.permissions.ListByRoleAndTable(ctx, role, table)
	if err != nil {
		e.logger.Error("table permission lookup failed",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.String("role", string(role)),
			zap.String("table", table))
		return models.FieldPermissions{}, services.WrapUnavailable("table permission lookup failed", err)
	}

	for _, p := range records {
		result.Grant(p.Field, p.PermissionType)
	}
	return result, nil
}

// resolveRole loads the role of userID. ok is false when the user is unknown or
// holds a role outside the closed set.
func (e *Evaluator) resolveRole(ctx context.Context, userID uuid.UUID) (models.UserRole, bool, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			e.logger.Debug("permission check for unknown user", zap.String("user_id", userID.String()))
			return "", false, nil
		}
		e.logger.Error("role lookup failed", zap.Error(err), zap.String("user_id", userID.String()))
		return "", false, services.WrapUnavailable("role lookup failed", err)
	}

	if !user.Role.Valid() {
		e.logger.Warn("user has unknown role, treating as no permissions",
			zap.String("user_id", userID.String()),
			zap.String("role", string(user.Role)),
			zap.NamedError("reason", services.ErrUnknownRole))
		return "", false, nil
	}
	return user.Role, true, nil
}

func (e *Evaluator) record(kind models.PermissionKind, outcome string) {
	label := string(kind)
	if !kind.Valid() {
		label = "invalid"
	}
	e.metrics.RecordPermissionCheck(label, outcome)
}

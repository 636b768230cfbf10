package permission

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/services"
	"github.com/rede-abrigo/admin-backend/services/audit"
	"github.com/rede-abrigo/admin-backend/utils"
	"go.uber.org/zap"
)

// AuditRecorder receives one event per administrative mutation
type AuditRecorder interface {
	LogPermissionCreated(p *models.Permission, actor audit.Actor) error
	LogPermissionDeleted(p *models.Permission, actor audit.Actor) error
	LogRolePermissionsReplaced(role models.UserRole, table string, removed int64, granted int, actor audit.Actor) error
	LogEmpresaPermissionUpdated(ep *models.EmpresaPermission, actor audit.Actor) error
}

// CreatePermissionInput is the body of a new field permission
type CreatePermissionInput struct {
	Role           string `json:"role" validate:"required,oneof=admin master padrao orgao"`
	Table          string `json:"table" validate:"required,identifier"`
	Field          string `json:"field" validate:"required,identifier"`
	PermissionType string `json:"permission_type" validate:"required,oneof=read write delete admin"`
}

// FieldGrant is one (field, kind) pair of a bulk replace
type FieldGrant struct {
	Field          string `json:"field" validate:"required,identifier"`
	PermissionType string `json:"permission_type" validate:"required,oneof=read write delete admin"`
}

// ReplaceRolePermissionsInput carries the complete new grant set of a role on a table
type ReplaceRolePermissionsInput struct {
	Role   string       `json:"role" validate:"required,oneof=admin master padrao orgao"`
	Table  string       `json:"table" validate:"required,identifier"`
	Grants []FieldGrant `json:"grants" validate:"dive"`
}

// AdminService manages Permission and EmpresaPermission records
type AdminService struct {
	permissions        repositories.PermissionRepository
	empresaPermissions repositories.EmpresaPermissionRepository
	txManager          repositories.TransactionManager
	audit              AuditRecorder
	logger             *zap.Logger
}

// NewAdminService creates a new AdminService. recorder may be nil.
func NewAdminService(
	permissions repositories.PermissionRepository,
	empresaPermissions repositories.EmpresaPermissionRepository,
	txManager repositories.TransactionManager,
	recorder AuditRecorder,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		permissions:        permissions,
		empresaPermissions: empresaPermissions,
		txManager:          txManager,
		audit:              recorder,
		logger:             logger,
	}
}

// ListPermissions returns every well-formed permission record
func (s *AdminService) ListPermissions(ctx context.Context) ([]*models.Permission, error) {
	perms, err := s.permissions.List(ctx)
	if err != nil {
		return nil, services.WrapUnavailable("failed to list permissions", err)
	}
	return perms, nil
}

// CreatePermission stores a new grant
func (s *AdminService) CreatePermission(ctx context.Context, actor audit.Actor, input CreatePermissionInput) (*models.Permission, error) {
	if err := utils.ValidateStruct(&input); err != nil {
		return nil, invalidInput(err)
	}

	p := models.NewPermission(models.UserRole(input.Role), input.Table, input.Field, models.PermissionKind(input.PermissionType))
	if err := s.permissions.Create(ctx, p); err != nil {
		return nil, translateWriteError("failed to create permission", err)
	}

	s.logger.Info("permission created",
		zap.String("permission_id", p.ID.String()),
		zap.String("role", string(p.Role)),
		zap.String("table", p.Table),
		zap.String("field", p.Field),
		zap.String("kind", string(p.PermissionType)),
		zap.String("actor_id", actor.UserID.String()))

	if s.audit != nil {
		s.emit(s.audit.LogPermissionCreated(p, actor))
	}
	return p, nil
}

// DeletePermission removes one grant by id
func (s *AdminService) DeletePermission(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	p, err := s.permissions.GetByID(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrMalformed):
		// Malformed rows grant nothing but must stay removable.
		s.logger.Warn("deleting malformed permission record",
			zap.String("permission_id", id.String()),
			zap.Error(err))
		p = &models.Permission{ID: id}
	default:
		return translateReadError(err)
	}

	if err := s.permissions.Delete(ctx, id); err != nil {
		return translateReadError(err)
	}

	s.logger.Info("permission deleted",
		zap.String("permission_id", id.String()),
		zap.String("actor_id", actor.UserID.String()))

	if s.audit != nil {
		s.emit(s.audit.LogPermissionDeleted(p, actor))
	}
	return nil
}

// ReplaceRolePermissions atomically swaps the grants of a role on a table for input.Grants.
// Repeated (field, kind) pairs in the input are stored once.
func (s *AdminService) ReplaceRolePermissions(ctx context.Context, actor audit.Actor, input ReplaceRolePermissionsInput) ([]*models.Permission, error) {
	if err := utils.ValidateStruct(&input); err != nil {
		return nil, invalidInput(err)
	}

	role := models.UserRole(input.Role)
	var removed int64

	created, err := services.WithTransactionResult(ctx, s.txManager, func(ctx context.Context, tx repositories.Transaction) ([]*models.Permission, error) {
		repo := s.permissions.WithTx(tx)

		n, err := repo.DeleteByRoleAndTable(ctx, role, input.Table)
		if err != nil {
			return nil, err
		}
		removed = n

		seen := make(map[FieldGrant]bool, len(input.Grants))
		out := make([]*models.Permission, 0, len(input.Grants))
		for _, g := range input.Grants {
			if seen[g] {
				continue
			}
			seen[g] = true

			p := models.NewPermission(role, input.Table, g.Field, models.PermissionKind(g.PermissionType))
			if err := repo.Create(ctx, p); err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	})
	if err != nil {
		return nil, translateWriteError("failed to replace role permissions", err)
	}

	s.logger.Info("role permissions replaced",
		zap.String("role", string(role)),
		zap.String("table", input.Table),
		zap.Int64("removed", removed),
		zap.Int("granted", len(created)),
		zap.String("actor_id", actor.UserID.String()))

	if s.audit != nil {
		s.emit(s.audit.LogRolePermissionsReplaced(role, input.Table, removed, len(created), actor))
	}
	return created, nil
}

// ListEmpresaPermissions returns the overlay of every organization type that has one
func (s *AdminService) ListEmpresaPermissions(ctx context.Context) ([]*models.EmpresaPermission, error) {
	eps, err := s.empresaPermissions.List(ctx)
	if err != nil {
		return nil, services.WrapUnavailable("failed to list empresa permissions", err)
	}
	return eps, nil
}

// GetEmpresaPermission returns the overlay of one organization type
func (s *AdminService) GetEmpresaPermission(ctx context.Context, empresaType models.EmpresaType) (*models.EmpresaPermission, error) {
	if !empresaType.Valid() {
		return nil, services.ErrUnknownEmpresaType.With(nil).
			WithDetail("empresa_type", string(empresaType))
	}

	ep, err := s.empresaPermissions.GetByType(ctx, empresaType)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrEmpresaPermissionNotFound
		}
		return nil, services.WrapUnavailable("failed to load empresa permission", err)
	}
	return ep, nil
}

// UpsertEmpresaPermission replaces the overlay of one organization type.
// Every section and action must belong to the fixed catalog.
func (s *AdminService) UpsertEmpresaPermission(ctx context.Context, actor audit.Actor, empresaType models.EmpresaType, permissions models.SectionPermissions) (*models.EmpresaPermission, error) {
	if !empresaType.Valid() {
		return nil, services.ErrUnknownEmpresaType.With(nil).
			WithDetail("empresa_type", string(empresaType))
	}
	if err := permissions.Validate(); err != nil {
		return nil, services.ErrUnknownSection.With(err).
			WithDetail("reason", err.Error())
	}

	ep := models.NewEmpresaPermission(empresaType, permissions)
	if err := s.empresaPermissions.Upsert(ctx, ep); err != nil {
		return nil, services.WrapUnavailable("failed to store empresa permission", err)
	}

	s.logger.Info("empresa permission updated",
		zap.String("empresa_type", string(empresaType)),
		zap.String("actor_id", actor.UserID.String()))

	if s.audit != nil {
		s.emit(s.audit.LogEmpresaPermissionUpdated(ep, actor))
	}
	return ep, nil
}

func (s *AdminService) emit(err error) {
	if err != nil {
		s.logger.Warn("failed to queue audit event", zap.Error(err))
	}
}

func invalidInput(err error) error {
	domainErr := services.ErrInvalidInput.With(err)
	if fields := utils.GetValidationFields(err); fields != nil {
		domainErr.WithDetail("fields", fields)
	}
	return domainErr
}

func translateReadError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return services.ErrPermissionNotFound
	case errors.Is(err, repositories.ErrMalformed):
		return services.ErrMalformedPermissionRecord.With(err)
	default:
		return services.WrapUnavailable("permission store failure", err)
	}
}

func translateWriteError(message string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrConflict):
		return services.ErrDuplicatePermission
	case errors.Is(err, repositories.ErrNotFound):
		return services.ErrPermissionNotFound
	default:
		return services.WrapUnavailable(message, err)
	}
}

// Package account manages who a user is inside the network: their role and
// the organization they work for. Both feed the live session state, so every
// change here ends the user's sessions and the next request rebuilds them.
package account

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

// SessionInvalidator ends every live session of a user
type SessionInvalidator interface {
	InvalidateUser(userID uuid.UUID) int
}

// AuditRecorder receives one event per account mutation
type AuditRecorder interface {
	LogUserRoleChanged(userID uuid.UUID, from, to models.UserRole, actor audit.Actor) error
	LogUserEmpresaChanged(userID uuid.UUID, from, to *uuid.UUID, actor audit.Actor) error
	LogEmpresaCreated(e *models.Empresa, actor audit.Actor) error
}

// UpdateRoleInput is the body of a role change
type UpdateRoleInput struct {
	Role string `json:"role" validate:"required"`
}

// UpdateEmpresaInput moves a user to EmpresaID, or detaches them when it is nil
type UpdateEmpresaInput struct {
	EmpresaID *uuid.UUID `json:"empresa_id"`
}

// CreateEmpresaInput is the body of a new organization
type CreateEmpresaInput struct {
	Nome string `json:"nome" validate:"required,max=255"`
	Tipo string `json:"tipo" validate:"required"`
}

// AccountService changes user roles and organizations and registers organizations
type AccountService struct {
	users     repositories.UserRepository
	empresas  repositories.EmpresaRepository
	txManager repositories.TransactionManager
	sessions  SessionInvalidator
	audit     AuditRecorder
	logger    *zap.Logger
}

// NewAccountService creates a new AccountService. recorder may be nil.
func NewAccountService(
	users repositories.UserRepository,
	empresas repositories.EmpresaRepository,
	txManager repositories.TransactionManager,
	sessions SessionInvalidator,
	recorder AuditRecorder,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		empresas:  empresas,
		txManager: txManager,
		sessions:  sessions,
		audit:     recorder,
		logger:    logger,
	}
}

// UpdateRole assigns a new role to userID and ends their sessions.
// Actors cannot change their own role.
func (s *AccountService) UpdateRole(ctx context.Context, actor audit.Actor, userID uuid.UUID, input UpdateRoleInput) (*models.User, error) {
	if err := utils.ValidateStruct(&input); err != nil {
		return nil, services.ErrInvalidInput.With(err).WithDetail("fields", utils.GetValidationFields(err))
	}
	role := models.UserRole(input.Role)
	if !role.Valid() {
		return nil, services.ErrUnknownRole.With(nil).WithDetail("role", input.Role)
	}
	if userID == actor.UserID {
		return nil, services.ErrSelfRoleChange
	}

	var previous models.UserRole
	user, err := services.WithTransactionResult(ctx, s.txManager, func(ctx context.Context, tx repositories.Transaction) (*models.User, error) {
		users := s.users.WithTx(tx)

		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		previous = u.Role

		if err := users.UpdateRole(ctx, userID, role); err != nil {
			return nil, err
		}
		u.Role = role
		return u, nil
	})
	if err != nil {
		return nil, translateUserError("failed to update user role", err)
	}

	ended := s.sessions.InvalidateUser(userID)
	s.logger.Info("user role changed",
		zap.String("user_id", userID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(role)),
		zap.Int("sessions_ended", ended),
		zap.String("actor_id", actor.UserID.String()))

	if s.audit != nil {
		s.emit(s.audit.LogUserRoleChanged(userID, previous, role, actor))
	}
	return user, nil
}

// UpdateEmpresa moves userID to another organization and ends their sessions,
// so the next request loads the overlay of the new organization type.
func (s *AccountService) UpdateEmpresa(ctx context.Context, actor audit.Actor, userID uuid.UUID, input UpdateEmpresaInput) (*models.User, error) {
	var previous *uuid.UUID
	user, err := services.WithTransactionResult(ctx, s.txManager, func(ctx context.Context, tx repositories.Transaction) (*models.User, error) {
		users := s.users.WithTx(tx)

		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		previous = u.EmpresaID

		var empresaType *models.EmpresaType
		if input.EmpresaID != nil {
			e, err := s.empresas.WithTx(tx).GetByID(ctx, *input.EmpresaID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return nil, services.ErrEmpresaNotFound.With(err).WithDetail("empresa_id", input.EmpresaID.String())
				}
				return nil, err
			}
			if !e.Tipo.Valid() {
				return nil, services.ErrUnknownEmpresaType.With(nil).WithDetail("empresa_type", string(e.Tipo))
			}
			empresaType = &e.Tipo
		}

		if err := users.UpdateEmpresa(ctx, userID, input.EmpresaID); err != nil {
			return nil, err
		}
		u.EmpresaID = input.EmpresaID
		u.EmpresaType = empresaType
		return u, nil
	})
	if err != nil {
		return nil, translateUserError("failed to move user", err)
	}

	ended := s.sessions.InvalidateUser(userID)
	fields := []zap.Field{
		zap.String("user_id", userID.String()),
		zap.Int("sessions_ended", ended),
		zap.String("actor_id", actor.UserID.String()),
	}
	if user.EmpresaType != nil {
		fields = append(fields, zap.String("empresa_type", string(*user.EmpresaType)))
	}
	s.logger.Info("user organization changed", fields...)

	if s.audit != nil {
		s.emit(s.audit.LogUserEmpresaChanged(userID, previous, input.EmpresaID, actor))
	}
	return user, nil
}

// ListEmpresas returns one page of organizations ordered by name
func (s *AccountService) ListEmpresas(ctx context.Context, limit, offset int) ([]*models.Empresa, error) {
	empresas, err := s.empresas.List(ctx, limit, offset)
	if err != nil {
		return nil, services.WrapUnavailable("failed to list empresas", err)
	}
	if empresas == nil {
		empresas = []*models.Empresa{}
	}
	return empresas, nil
}

// CreateEmpresa registers an organization of a known type
func (s *AccountService) CreateEmpresa(ctx context.Context, actor audit.Actor, input CreateEmpresaInput) (*models.Empresa, error) {
	if err := utils.ValidateStruct(&input); err != nil {
		return nil, services.ErrInvalidInput.With(err).WithDetail("fields", utils.GetValidationFields(err))
	}
	tipo := models.EmpresaType(input.Tipo)
	if !tipo.Valid() {
		return nil, services.ErrUnknownEmpresaType.With(nil).WithDetail("empresa_type", input.Tipo)
	}

	e := models.NewEmpresa(input.Nome, tipo)
	if err := s.empresas.Create(ctx, e); err != nil {
		return nil, services.WrapUnavailable("failed to create empresa", err)
	}

	s.logger.Info("empresa created",
		zap.String("empresa_id", e.ID.String()),
		zap.String("tipo", string(tipo)),
		zap.String("actor_id", actor.UserID.String()))

	if s.audit != nil {
		s.emit(s.audit.LogEmpresaCreated(e, actor))
	}
	return e, nil
}

func (s *AccountService) emit(err error) {
	if err != nil {
		s.logger.Warn("failed to queue audit event", zap.Error(err))
	}
}

func translateUserError(message string, err error) error {
	var domainErr *services.DomainError
	switch {
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, repositories.ErrNotFound):
		return services.ErrUserNotFound
	default:
		return services.WrapUnavailable(message, err)
	}
}

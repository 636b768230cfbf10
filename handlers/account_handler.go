package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/middleware"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/services/account"
	"github.com/rede-abrigo/admin-backend/services/audit"
	"github.com/rede-abrigo/admin-backend/utils"
	"go.uber.org/zap"
)

// AccountAdmin defines the user and organization operations of administrators
type AccountAdmin interface {
	UpdateRole(ctx context.Context, actor audit.Actor, userID uuid.UUID, input account.UpdateRoleInput) (*models.User, error)
	UpdateEmpresa(ctx context.Context, actor audit.Actor, userID uuid.UUID, input account.UpdateEmpresaInput) (*models.User, error)
	ListEmpresas(ctx context.Context, limit, offset int) ([]*models.Empresa, error)
	CreateEmpresa(ctx context.Context, actor audit.Actor, input account.CreateEmpresaInput) (*models.Empresa, error)
}

// AccountHandler handles user role, user organization and organization requests
type AccountHandler struct {
	accounts AccountAdmin
	logger   *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts AccountAdmin, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// HandleUpdateRole handles PUT /api/v1/admin/users/{id}/role
func (h *AccountHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var input account.UpdateRoleInput
	if err := decodeJSON(w, r, &input); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	user, err := h.accounts.UpdateRole(r.Context(), actorFromRequest(r), userID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user role updated",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("user_id", userID.String()),
		zap.String("role", string(user.Role)))
	_ = utils.WriteOK(w, user)
}

// HandleUpdateEmpresa handles PUT /api/v1/admin/users/{id}/empresa
// A null empresa_id detaches the user from any organization.
func (h *AccountHandler) HandleUpdateEmpresa(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var input account.UpdateEmpresaInput
	if err := decodeJSON(w, r, &input); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	user, err := h.accounts.UpdateEmpresa(r.Context(), actorFromRequest(r), userID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, user)
}

// HandleListEmpresas handles GET /api/v1/admin/empresas
func (h *AccountHandler) HandleListEmpresas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := parsePage(q.Get("limit"), q.Get("offset"))
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	empresas, err := h.accounts.ListEmpresas(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, empresas)
}

// HandleCreateEmpresa handles POST /api/v1/admin/empresas
func (h *AccountHandler) HandleCreateEmpresa(w http.ResponseWriter, r *http.Request) {
	var input account.CreateEmpresaInput
	if err := decodeJSON(w, r, &input); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	e, err := h.accounts.CreateEmpresa(r.Context(), actorFromRequest(r), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, e)
}

func (h *AccountHandler) userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid user ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/middleware"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/services/audit"
	"github.com/rede-abrigo/admin-backend/services/permission"
	"github.com/rede-abrigo/admin-backend/utils"
	"go.uber.org/zap"
)

// PermissionAdmin defines the administrative permission operations
type PermissionAdmin interface {
	ListPermissions(ctx context.Context) ([]*models.Permission, error)
	CreatePermission(ctx context.Context, actor audit.Actor, input permission.CreatePermissionInput) (*models.Permission, error)
	DeletePermission(ctx context.Context, actor audit.Actor, id uuid.UUID) error
	ReplaceRolePermissions(ctx context.Context, actor audit.Actor, input permission.ReplaceRolePermissionsInput) ([]*models.Permission, error)
	ListEmpresaPermissions(ctx context.Context) ([]*models.EmpresaPermission, error)
	GetEmpresaPermission(ctx context.Context, empresaType models.EmpresaType) (*models.EmpresaPermission, error)
	UpsertEmpresaPermission(ctx context.Context, actor audit.Actor, empresaType models.EmpresaType, permissions models.SectionPermissions) (*models.EmpresaPermission, error)
}

// ReplaceGrantsRequest is the body of PUT /permissions/roles/{role}/tables/{table}
type ReplaceGrantsRequest struct {
	Grants []permission.FieldGrant `json:"grants"`
}

// UpsertEmpresaPermissionRequest is the body of PUT /empresa-permissions/{type}
type UpsertEmpresaPermissionRequest struct {
	Permissions models.SectionPermissions `json:"permissions"`
}

// AdminHandler handles permission administration requests
type AdminHandler struct {
	admin  PermissionAdmin
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin PermissionAdmin, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		logger: logger,
	}
}

// HandleListPermissions handles GET /api/v1/admin/permissions
func (h *AdminHandler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.admin.ListPermissions(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, perms)
}

// HandleCreatePermission handles POST /api/v1/admin/permissions
func (h *AdminHandler) HandleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var input permission.CreatePermissionInput
	if err := decodeJSON(w, r, &input); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	created, err := h.admin.CreatePermission(r.Context(), actorFromRequest(r), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("permission created",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("permission_id", created.ID.String()))
	_ = utils.WriteCreated(w, created)
}

// HandleDeletePermission handles DELETE /api/v1/admin/permissions/{id}
func (h *AdminHandler) HandleDeletePermission(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid permission ID format", nil)
		return
	}

	if err := h.admin.DeletePermission(r.Context(), actorFromRequest(r), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandleReplaceRolePermissions handles PUT /api/v1/admin/permissions/roles/{role}/tables/{table}
func (h *AdminHandler) HandleReplaceRolePermissions(w http.ResponseWriter, r *http.Request) {
	var body ReplaceGrantsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	input := permission.ReplaceRolePermissionsInput{
		Role:   chi.URLParam(r, "role"),
		Table:  chi.URLParam(r, "table"),
		Grants: body.Grants,
	}

	granted, err := h.admin.ReplaceRolePermissions(r.Context(), actorFromRequest(r), input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, granted)
}

// HandleListEmpresaPermissions handles GET /api/v1/admin/empresa-permissions
func (h *AdminHandler) HandleListEmpresaPermissions(w http.ResponseWriter, r *http.Request) {
	overlays, err := h.admin.ListEmpresaPermissions(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, overlays)
}

// HandleGetEmpresaPermission handles GET /api/v1/admin/empresa-permissions/{type}
func (h *AdminHandler) HandleGetEmpresaPermission(w http.ResponseWriter, r *http.Request) {
	ep, err := h.admin.GetEmpresaPermission(r.Context(), models.EmpresaType(chi.URLParam(r, "type")))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, ep)
}

// HandleUpsertEmpresaPermission handles PUT /api/v1/admin/empresa-permissions/{type}
// Live sessions keep their memoized overlay until they sign in again.
func (h *AdminHandler) HandleUpsertEmpresaPermission(w http.ResponseWriter, r *http.Request) {
	var body UpsertEmpresaPermissionRequest
	if err := decodeJSON(w, r, &body); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	ep, err := h.admin.UpsertEmpresaPermission(r.Context(), actorFromRequest(r), models.EmpresaType(chi.URLParam(r, "type")), body.Permissions)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, ep)
}

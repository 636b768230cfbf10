package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/middleware"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/services/navigation"
	"github.com/rede-abrigo/admin-backend/utils"
	"go.uber.org/zap"
)

// PermissionChecker answers the caller's field-level questions
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID uuid.UUID, table, field string, kind models.PermissionKind) (bool, error)
	TablePermissions(ctx context.Context, userID uuid.UUID, table string) (models.FieldPermissions, error)
}

// CheckResponse is the answer to a single permission question
type CheckResponse struct {
	Table   string                `json:"table"`
	Field   string                `json:"field"`
	Kind    models.PermissionKind `json:"kind"`
	Granted bool                  `json:"granted"`
}

// TablePermissionsResponse lists the caller's grants on one table
type TablePermissionsResponse struct {
	Table  string                  `json:"table"`
	Fields models.FieldPermissions `json:"fields"`
}

// SectionResponse is the answer to a section/action question
type SectionResponse struct {
	Section models.Section `json:"section"`
	Action  models.Action  `json:"action"`
	Allowed bool           `json:"allowed"`
}

// PermissionHandler serves the caller's own permission questions
type PermissionHandler struct {
	checker PermissionChecker
	menu    []navigation.MenuItem
	logger  *zap.Logger
}

// NewPermissionHandler creates a new PermissionHandler
func NewPermissionHandler(checker PermissionChecker, menu []navigation.MenuItem, logger *zap.Logger) *PermissionHandler {
	return &PermissionHandler{
		checker: checker,
		menu:    menu,
		logger:  logger,
	}
}

// HandleCheck handles GET /api/v1/permissions/check?table=&field=&kind=
// A denial is a 200 with granted=false; only a store failure is an error.
func (h *PermissionHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	table := q.Get("table")
	field := q.Get("field")
	kind := models.PermissionKind(q.Get("kind"))

	for name, value := range map[string]string{"table": table, "field": field, "kind": string(kind)} {
		if err := utils.ValidateRequired(value, name); err != nil {
			_ = utils.WriteBadRequest(w, "table, field and kind are required", map[string]interface{}{name: err.Error()})
			return
		}
	}

	granted, err := h.checker.HasPermission(r.Context(), callerID(r), table, field, kind)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, CheckResponse{Table: table, Field: field, Kind: kind, Granted: granted})
}

// HandleTablePermissions handles GET /api/v1/permissions/tables/{table}
func (h *PermissionHandler) HandleTablePermissions(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	fields, err := h.checker.TablePermissions(r.Context(), callerID(r), table)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, TablePermissionsResponse{Table: table, Fields: fields})
}

// HandleSection handles GET /api/v1/sections/{section}/{action}
// Unknown sections and actions are answered, not rejected: they are never allowed.
func (h *PermissionHandler) HandleSection(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSessionFromContext(r.Context())
	if s == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	section := models.Section(chi.URLParam(r, "section"))
	action := models.Action(chi.URLParam(r, "action"))

	_ = utils.WriteOK(w, SectionResponse{
		Section: section,
		Action:  action,
		Allowed: s.Overlay.Can(section, action),
	})
}

// HandleMenu handles GET /api/v1/menu
func (h *PermissionHandler) HandleMenu(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSessionFromContext(r.Context())
	if s == nil {
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	isAdmin := s.IsAdmin()
	_ = utils.WriteOK(w, navigation.VisibleMenu(h.menu, &isAdmin))
}

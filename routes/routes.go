package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rede-abrigo/admin-backend/app"
	"github.com/rede-abrigo/admin-backend/models"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}
	r.Use(deps.Metrics.Instrument)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Post("/session", deps.SessionHandler.HandleCreateSession)

		r.Group(func(r chi.Router) {
			r.Use(deps.SessionMiddleware.LoadSession)

			r.Get("/session", deps.SessionHandler.HandleGetSession)
			r.Delete("/session", deps.SessionHandler.HandleDeleteSession)
			r.Get("/menu", deps.PermissionHandler.HandleMenu)

			r.Get("/permissions/check", deps.PermissionHandler.HandleCheck)
			r.Get("/permissions/tables/{table}", deps.PermissionHandler.HandleTablePermissions)
			r.Get("/sections/{section}/{action}", deps.PermissionHandler.HandleSection)

			// Organization reports: the section must be enabled for the caller's
			// organization type and the role must be able to read audit details.
			r.With(
				deps.PermissionMiddleware.RequireSection(models.SectionRelatorios, models.ActionView),
				deps.PermissionMiddleware.RequirePermission("audit_logs", "details", models.PermissionRead),
			).Get("/relatorios/audit-logs", deps.AuditLogHandler.HandleList)
		})

		// Administration (privileged role required)
		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.PermissionMiddleware.RequireAdmin)

			r.Get("/permissions", deps.AdminHandler.HandleListPermissions)
			r.Post("/permissions", deps.AdminHandler.HandleCreatePermission)
			r.Delete("/permissions/{id}", deps.AdminHandler.HandleDeletePermission)
			r.Put("/permissions/roles/{role}/tables/{table}", deps.AdminHandler.HandleReplaceRolePermissions)

			r.Get("/empresa-permissions", deps.AdminHandler.HandleListEmpresaPermissions)
			r.Get("/empresa-permissions/{type}", deps.AdminHandler.HandleGetEmpresaPermission)
			r.Put("/empresa-permissions/{type}", deps.AdminHandler.HandleUpsertEmpresaPermission)

			r.Get("/empresas", deps.AccountHandler.HandleListEmpresas)
			r.Post("/empresas", deps.AccountHandler.HandleCreateEmpresa)
			r.Put("/users/{id}/role", deps.AccountHandler.HandleUpdateRole)
			r.Put("/users/{id}/empresa", deps.AccountHandler.HandleUpdateEmpresa)

			r.Get("/audit-logs", deps.AuditLogHandler.HandleList)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}

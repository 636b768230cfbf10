package app

import (
	"context"
	"fmt"

	"github.com/rede-abrigo/admin-backend/config"
	"github.com/rede-abrigo/admin-backend/handlers"
	"github.com/rede-abrigo/admin-backend/internal/observability"
	"github.com/rede-abrigo/admin-backend/middleware"
	"github.com/rede-abrigo/admin-backend/repositories"
	"github.com/rede-abrigo/admin-backend/repositories/postgres"
	"github.com/rede-abrigo/admin-backend/services/account"
	"github.com/rede-abrigo/admin-backend/services/audit"
	"github.com/rede-abrigo/admin-backend/services/navigation"
	"github.com/rede-abrigo/admin-backend/services/permission"
	"github.com/rede-abrigo/admin-backend/services/session"
	"github.com/rede-abrigo/admin-backend/supabase"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users              repositories.UserRepository
	Empresas           repositories.EmpresaRepository
	Permissions        repositories.PermissionRepository
	EmpresaPermissions repositories.EmpresaPermissionRepository
	AuditLogs          repositories.AuditRepository
	TxManager          repositories.TransactionManager

	// Services
	Audit     *audit.AuditService
	Evaluator *permission.Evaluator
	Admin     *permission.AdminService
	Sessions  *session.Manager
	Accounts  *account.AccountService
	Menu      []navigation.MenuItem

	// Middleware
	AuthMiddleware       *middleware.AuthMiddleware
	SessionMiddleware    *middleware.SessionMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware

	// Handlers
	HealthHandler     *handlers.HealthHandler
	SessionHandler    *handlers.SessionHandler
	PermissionHandler *handlers.PermissionHandler
	AdminHandler      *handlers.AdminHandler
	AuditLogHandler   *handlers.AuditLogHandler
	AccountHandler    *handlers.AccountHandler
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
		Menu:   navigation.DefaultMenu(),
	}
	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	// Initialize PostgreSQL
	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initServices(cfg)
	deps.initAuth(cfg)
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase opens the pool, applies migrations when enabled and checks connectivity
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.PingContext(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := runMigrations(cfg.Database, d.Logger); err != nil {
			_ = factory.Close()
			return err
		}
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

func runMigrations(cfg config.DatabaseConfig, logger *zap.Logger) error {
	migrator, err := postgres.NewMigrator(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.wireRepositories(d.RepoFactory.NewRepositories(), d.RepoFactory.GetTransactionManager())
	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) wireRepositories(repos *repositories.Repositories, tx repositories.TransactionManager) {
	d.Users = repos.Users
	d.Empresas = repos.Empresas
	d.Permissions = repos.Permissions
	d.EmpresaPermissions = repos.EmpresaPermissions
	d.AuditLogs = repos.AuditLogs
	d.TxManager = tx
}

// initServices builds the evaluator, the admin and account services, the audit writer and the session manager
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Audit = audit.NewAuditService(d.AuditLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.Workers,
	})
	d.Evaluator = permission.NewEvaluator(d.Users, d.Permissions, d.Logger, d.Metrics)
	d.Admin = permission.NewAdminService(d.Permissions, d.EmpresaPermissions, d.TxManager, d.Audit, d.Logger)
	d.Sessions = session.NewManager(d.Users, d.EmpresaPermissions, session.Config{
		TTL:        cfg.Session.TTL,
		MaxEntries: cfg.Session.MaxEntries,
	}, d.Logger, d.Metrics)
	d.Accounts = account.NewAccountService(d.Users, d.Empresas, d.TxManager, d.Sessions, d.Audit, d.Logger)

	d.SessionMiddleware = middleware.NewSessionMiddleware(d.Sessions, d.Logger)
	d.PermissionMiddleware = middleware.NewPermissionMiddleware(d.Evaluator, d.Users, d.Logger)
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	if cfg.Supabase.JWTSecret == "" {
		d.Logger.Warn("supabase JWT secret not configured, protected routes will reject every token")
		// Use reject-all validator so protected routes return 401
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger)
		return
	}
	validator := supabase.NewValidator(supabase.Config{
		JWTSecret: cfg.Supabase.JWTSecret,
		Issuer:    cfg.Supabase.Issuer(),
		Audience:  cfg.Supabase.Audience,
	})
	d.AuthMiddleware = middleware.NewAuthMiddleware(&supabaseTokenValidatorAdapter{validator: validator}, d.Logger)
	d.Logger.Info("token validation initialized", zap.String("issuer", cfg.Supabase.Issuer()))
}

func (d *Dependencies) initHandlers() {
	d.HealthHandler = handlers.NewHealthHandler(d.DB.DB, d.Audit, d.Sessions, d.Logger)
	d.SessionHandler = handlers.NewSessionHandler(d.Sessions, d.Menu, d.Logger)
	d.PermissionHandler = handlers.NewPermissionHandler(d.Evaluator, d.Menu, d.Logger)
	d.AdminHandler = handlers.NewAdminHandler(d.Admin, d.Logger)
	d.AuditLogHandler = handlers.NewAuditLogHandler(d.AuditLogs, d.Logger)
	d.AccountHandler = handlers.NewAccountHandler(d.Accounts, d.Logger)
}

// supabaseTokenValidatorAdapter adapts supabase.Validator to middleware.TokenValidator
type supabaseTokenValidatorAdapter struct {
	validator *supabase.Validator
}

func (a *supabaseTokenValidatorAdapter) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	parsed, err := a.validator.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{
		UserID:    parsed.Sub,
		Email:     parsed.Email,
		SessionID: parsed.SessionID,
		AuthRole:  parsed.Role,
		Exp:       parsed.ExpiresAt.Unix(),
		Iat:       parsed.IssuedAt.Unix(),
	}, nil
}

// rejectAllValidator rejects all tokens (used when no JWT secret is configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*middleware.Claims, error) {
	return nil, supabase.ErrNotConfigured
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Sessions != nil {
		d.Sessions.Close()
	}

	// Close database connection
	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}

package app

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/config"
	"github.com/rede-abrigo/admin-backend/repositories/postgres"
	"github.com/rede-abrigo/admin-backend/supabase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestNewDependencies(t *testing.T) {
	t.Run("successful initialization with all components", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		logger := zaptest.NewLogger(t)

		// Skip if database not available
		if !isDatabaseAvailable(t, cfg) {
			t.Skip("database not available")
		}

		deps, err := NewDependencies(ctx, cfg, logger)
		require.NoError(t, err)
		require.NotNil(t, deps)

		assert.NotNil(t, deps.DB)
		assert.NotNil(t, deps.Users)
		assert.NotNil(t, deps.Permissions)
		assert.NotNil(t, deps.EmpresaPermissions)
		assert.NotNil(t, deps.TxManager)
		assert.NotNil(t, deps.Evaluator)
		assert.NotNil(t, deps.Sessions)

		err = deps.Close(ctx)
		assert.NoError(t, err)
	})

	t.Run("database connection failure", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)
		cfg.Database.Host = "invalid-host-that-does-not-exist"
		logger := zaptest.NewLogger(t)

		deps, err := NewDependencies(ctx, cfg, logger)
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize database")
	})
}

// wiredWithMock builds the full graph on top of a sqlmock pool
func wiredWithMock(t *testing.T, cfg *config.Config) (*Dependencies, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	deps := &Dependencies{Config: cfg, Logger: logger}
	deps.RepoFactory = postgres.NewRepositoryFactoryFromDB(postgres.NewDBFromSQL(db, logger), logger)
	deps.DB = deps.RepoFactory.GetDB()

	deps.initRepositories()
	deps.initServices(cfg)
	deps.initAuth(cfg)
	deps.initHandlers()
	return deps, mock
}

func TestDependencies_Wiring(t *testing.T) {
	cfg := testConfig(t)
	deps, mock := wiredWithMock(t, cfg)

	assert.NotNil(t, deps.Audit)
	assert.NotNil(t, deps.Admin)
	assert.NotNil(t, deps.Accounts)
	assert.NotNil(t, deps.AuthMiddleware)
	assert.NotNil(t, deps.SessionMiddleware)
	assert.NotNil(t, deps.PermissionMiddleware)
	assert.NotNil(t, deps.HealthHandler)
	assert.NotNil(t, deps.SessionHandler)
	assert.NotNil(t, deps.PermissionHandler)
	assert.NotNil(t, deps.AdminHandler)
	assert.NotNil(t, deps.AuditLogHandler)
	assert.NotNil(t, deps.AccountHandler)
	assert.Equal(t, 0, deps.Sessions.Stats().Size)

	mock.ExpectClose()
	require.NoError(t, deps.Close(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupabaseTokenValidatorAdapter(t *testing.T) {
	const secret = "adapter-secret"
	adapter := &supabaseTokenValidatorAdapter{validator: supabase.NewValidator(supabase.Config{JWTSecret: secret})}

	sub := uuid.New()
	now := time.Now().Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &supabase.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:     "ana@example.org",
		Role:      "authenticated",
		SessionID: "sess-42",
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	claims, err := adapter.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, sub, claims.UserID)
	assert.Equal(t, "ana@example.org", claims.Email)
	assert.Equal(t, "sess-42", claims.SessionKey())
	assert.Equal(t, "authenticated", claims.AuthRole)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.Exp)

	_, err = adapter.ValidateToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, supabase.ErrInvalidToken)
}

func TestInitAuth_WithoutSecretRejectsEverything(t *testing.T) {
	cfg := testConfig(t)
	cfg.Supabase.JWTSecret = ""
	deps, _ := wiredWithMock(t, cfg)
	require.NotNil(t, deps.AuthMiddleware)

	claims, err := (&rejectAllValidator{}).ValidateToken(context.Background(), "anything")
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, supabase.ErrNotConfigured)
}

// Test helpers

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: config.DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "rede_abrigo_test",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Supabase: config.SupabaseConfig{
			URL:       "https://test.supabase.co",
			JWTSecret: "test-secret",
			Audience:  "authenticated",
		},
		Session: config.SessionConfig{
			TTL:        time.Hour,
			MaxEntries: 100,
		},
		Audit: config.AuditConfig{
			BufferSize: 10,
			Workers:    1,
		},
		Observability: config.ObservabilityConfig{
			LogLevel:       "debug",
			LogFormat:      "json",
			MetricsEnabled: false,
		},
	}
}

func isDatabaseAvailable(t *testing.T, cfg *config.Config) bool {
	t.Helper()
	factory, err := postgres.NewRepositoryFactory(cfg, zap.NewNop())
	if err != nil {
		return false
	}
	defer factory.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return factory.GetDB().PingContext(ctx) == nil
}

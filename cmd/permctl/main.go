// Command permctl administers the permission store from the shell: schema
// migrations, seeding grants and organization overlays from YAML, and
// answering permission or menu questions without going through the API.
//
//	permctl migrate up
//	permctl seed --file seed.yaml
//	permctl check --user 6f1c... --table acolhidos --field nome --kind read
//	permctl menu --role padrao
//
// Database settings come from the same environment variables as the API
// server (DATABASE_URL or DB_HOST, DB_USER, ...).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rede-abrigo/admin-backend/config"
	"github.com/rede-abrigo/admin-backend/internal/observability"
	"github.com/rede-abrigo/admin-backend/repositories/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "permctl",
	Short: "Administer roles, field permissions and organization overlays",
	Long: `Administer roles, field permissions and organization overlays.

Commands that touch the database read the same environment as the API
server. Set LOG_LEVEL=debug to see every query outcome.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// cliLogger logs to stderr in console format so stdout stays scriptable
func cliLogger() *zap.Logger {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger, err := observability.NewLogger(level, "console")
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openStore loads configuration and opens the repository factory
func openStore(ctx context.Context, logger *zap.Logger) (*config.Config, *postgres.RepositoryFactory, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return cfg, factory, nil
}

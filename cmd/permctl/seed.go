package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/services/audit"
	"github.com/rede-abrigo/admin-backend/services/permission"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML document accepted by permctl seed
//
//	permissions:
//	  - role: padrao
//	    table: acolhidos
//	    grants:
//	      - {field: nome, kind: read}
//	empresa_permissions:
//	  abrigo:
//	    acolhidos: {view: true, create: true}
type seedFile struct {
	Permissions        []seedRoleTable                       `yaml:"permissions"`
	EmpresaPermissions map[string]map[string]map[string]bool `yaml:"empresa_permissions"`
}

type seedRoleTable struct {
	Role   string      `yaml:"role"`
	Table  string      `yaml:"table"`
	Grants []seedGrant `yaml:"grants"`
}

type seedGrant struct {
	Field string `yaml:"field"`
	Kind  string `yaml:"kind"`
}

// seedTarget is the subset of the admin service a seed run drives
type seedTarget interface {
	ReplaceRolePermissions(ctx context.Context, actor audit.Actor, input permission.ReplaceRolePermissionsInput) ([]*models.Permission, error)
	UpsertEmpresaPermission(ctx context.Context, actor audit.Actor, empresaType models.EmpresaType, permissions models.SectionPermissions) (*models.EmpresaPermission, error)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load field permissions and organization overlays from YAML",
	Long: `Load field permissions and organization overlays from YAML.

Each (role, table) entry replaces every existing grant of that role on that
table. Each organization type entry replaces its overlay. Entries not named
in the file are left untouched.

Example:
  permctl seed --file seed.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		defer func() { _ = f.Close() }()

		seed, err := parseSeed(f)
		if err != nil {
			return err
		}

		ctx := context.Background()
		logger := cliLogger()
		defer func() { _ = logger.Sync() }()

		_, factory, err := openStore(ctx, logger)
		if err != nil {
			return err
		}
		defer func() { _ = factory.Close() }()

		repos := factory.NewRepositories()
		recorder := audit.NewAuditService(repos.AuditLogs, logger, audit.DefaultConfig())
		if err := recorder.Start(); err != nil {
			return err
		}
		defer func() { _ = recorder.Stop(10 * time.Second) }()

		admin := permission.NewAdminService(repos.Permissions, repos.EmpresaPermissions, factory.GetTransactionManager(), recorder, logger)
		return applySeed(ctx, admin, seed, cmd.OutOrStdout())
	},
}

func init() {
	seedCmd.Flags().StringP("file", "f", "seed.yaml", "Seed file to load")
	rootCmd.AddCommand(seedCmd)
}

func parseSeed(r io.Reader) (*seedFile, error) {
	var seed seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if err == io.EOF {
			return &seed, nil
		}
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &seed, nil
}

// applySeed writes every entry of seed and stops at the first rejected one
func applySeed(ctx context.Context, target seedTarget, seed *seedFile, out io.Writer) error {
	actor := audit.Actor{UserAgent: "permctl"}

	for _, entry := range seed.Permissions {
		grants := make([]permission.FieldGrant, 0, len(entry.Grants))
		for _, g := range entry.Grants {
			grants = append(grants, permission.FieldGrant{Field: g.Field, PermissionType: g.Kind})
		}
		granted, err := target.ReplaceRolePermissions(ctx, actor, permission.ReplaceRolePermissionsInput{
			Role:   entry.Role,
			Table:  entry.Table,
			Grants: grants,
		})
		if err != nil {
			return fmt.Errorf("permissions %s/%s: %w", entry.Role, entry.Table, err)
		}
		fmt.Fprintf(out, "permissions %s/%s: %d grant(s)\n", entry.Role, entry.Table, len(granted))
	}

	types := make([]string, 0, len(seed.EmpresaPermissions))
	for empresaType := range seed.EmpresaPermissions {
		types = append(types, empresaType)
	}
	sort.Strings(types)

	for _, empresaType := range types {
		sections := seed.EmpresaPermissions[empresaType]
		perms := models.SectionPermissions{}
		for section, actions := range sections {
			leaves := make(map[models.Action]bool, len(actions))
			for action, allowed := range actions {
				leaves[models.Action(action)] = allowed
			}
			perms[models.Section(section)] = leaves
		}
		if _, err := target.UpsertEmpresaPermission(ctx, actor, models.EmpresaType(empresaType), perms); err != nil {
			return fmt.Errorf("empresa permissions %s: %w", empresaType, err)
		}
		fmt.Fprintf(out, "empresa permissions %s: %d section(s)\n", empresaType, len(perms))
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/services/permission"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ask the evaluator whether a user holds a field permission",
	Long: `Ask the evaluator whether a user holds a field permission.

Prints "granted" or "denied". A store failure is reported as an error and
exits non-zero; it is never printed as a denial.

Example:
  permctl check --user 6f1c2a9e-... --table acolhidos --field nome --kind read`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		userFlag, _ := cmd.Flags().GetString("user")
		table, _ := cmd.Flags().GetString("table")
		field, _ := cmd.Flags().GetString("field")
		kind, _ := cmd.Flags().GetString("kind")

		userID, err := uuid.Parse(userFlag)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
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
		evaluator := permission.NewEvaluator(repos.Users, repos.Permissions, logger, nil)
		return runCheck(ctx, evaluator, cmd.OutOrStdout(), userID, table, field, models.PermissionKind(kind))
	},
}

func init() {
	checkCmd.Flags().String("user", "", "User ID")
	checkCmd.Flags().String("table", "", "Table name")
	checkCmd.Flags().String("field", "", "Field name")
	checkCmd.Flags().String("kind", string(models.PermissionRead), "read, write, delete or admin")
	_ = checkCmd.MarkFlagRequired("user")
	_ = checkCmd.MarkFlagRequired("table")
	_ = checkCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(ctx context.Context, checker permission.Checker, out io.Writer, userID uuid.UUID, table, field string, kind models.PermissionKind) error {
	granted, err := checker.HasPermission(ctx, userID, table, field, kind)
	if err != nil {
		return err
	}
	if granted {
		fmt.Fprintln(out, "granted")
	} else {
		fmt.Fprintln(out, "denied")
	}
	return nil
}

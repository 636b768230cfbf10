package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rede-abrigo/admin-backend/models"
	"github.com/rede-abrigo/admin-backend/services/navigation"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the sidebar a role would see",
	Long: `Print the sidebar a role would see.

Roles outside the known set see the non-administrative entries only.

Example:
  permctl menu --role padrao`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		return printMenu(cmd.OutOrStdout(), navigation.MenuForRole(models.UserRole(role)))
	},
}

func init() {
	menuCmd.Flags().String("role", string(models.RolePadrao), "Role to render the menu for")
	rootCmd.AddCommand(menuCmd)
}

func printMenu(out io.Writer, items []navigation.MenuItem) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tROUTE\tICON")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Title, item.Route, item.Icon)
	}
	return tw.Flush()
}

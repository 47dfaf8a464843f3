package cmd

import (
	"nextauth/cli/internal/auth"

	"github.com/spf13/cobra"
)

// whoamiCmd shows the restored session on the dashboard page.
var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	Aliases: []string{"me"},
	Short:   "Show the signed-in user",
	Long: `The whoami command restores the stored session against GET /me and shows the
signed-in user's email, roles and permissions. An invalid or expired session is
signed out.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFor(cmd)
		if err != nil {
			return err
		}
		if !a.session.IsAuthenticated() {
			showNotLoggedIn(cmd.OutOrStdout())
			return nil
		}
		return a.router.Navigate(cmd.Context(), auth.DashboardPath)
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

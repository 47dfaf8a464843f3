// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"nextauth/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// logoutCmd removes the stored session.
var logoutCmd = &cobra.Command{
	Use:     "logout",
	Aliases: []string{"signout"},
	Short:   "Remove the stored session tokens",
	Long: `The logout command removes the access and refresh tokens from the OS keychain
and shows the signed-out page. It is safe to run when not logged in.`,
	Annotations: map[string]string{annotationSkipSession: "true"},

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFor(cmd)
		if err != nil {
			return err
		}
		if err := a.session.SignOut(cmd.Context()); err != nil {
			pterm.Warning.Println(logging.PresentError("Some credentials could not be removed", err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

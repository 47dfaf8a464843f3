// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"nextauth/cli/internal/backend"
	"nextauth/cli/internal/httperrors"
	"nextauth/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// getCmd issues an authenticated GET through the shared client. A 401
// means the session is gone server-side, so it is signed out locally too.
var getCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "GET an API path with the current session",
	Args:  cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFor(cmd)
		if err != nil {
			return err
		}
		body, err := a.api.Raw(cmd.Context(), args[0])
		if err != nil {
			if errors.Is(err, backend.ErrUnauthorized) {
				a.logger.Info("request unauthorized; signing out",
					logging.Secret("authorization", a.api.DefaultHeader("Authorization")))
				pterm.Warning.Println("Your session has expired.")
				if soErr := a.session.SignOut(cmd.Context()); soErr != nil {
					return errors.Join(err, soErr)
				}
				return err
			}
			var statusErr *backend.StatusError
			if errors.As(err, &statusErr) {
				return err
			}
			return httperrors.Present(os.Stderr, err, "requesting "+args[0], httperrors.ExtractHostFromURL(a.cfg.APIURL))
		}

		var out bytes.Buffer
		if err := json.Indent(&out, body, "", "  "); err != nil {
			out.Reset()
			out.Write(body)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

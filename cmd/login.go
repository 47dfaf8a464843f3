// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"nextauth/cli/internal/auth"
	"nextauth/cli/internal/backend"
	apperrors "nextauth/cli/internal/errors"
	"nextauth/cli/internal/httperrors"
	"nextauth/cli/internal/logging"
	"nextauth/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var loginEmail string

// loginCmd signs in with email and password.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"signin"},
	Short:   "Sign in with email and password",
	Long: `The login command posts your email and password to the session API. On success
the issued token pair is stored in the OS keychain for 30 days and the dashboard
is shown. The password is read without echo when stdin is a terminal.

If a stored session is still valid, the command reports it and does nothing.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFor(cmd)
		if err != nil {
			return err
		}
		if u := a.session.User(); u != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Already logged in as %s\n", u.Email)
			return nil
		}

		prompter := terminal.NewPrompter()
		email := loginEmail
		if email == "" {
			if email, err = prompter.ReadLine("Email: "); err != nil {
				return fmt.Errorf("read email: %w", err)
			}
		}
		password, err := prompter.ReadPassword("Password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout+5*time.Second)
		defer cancel()

		stop := startSpinner("Signing in")
		err = a.session.SignIn(ctx, auth.Credentials{Email: email, Password: password})
		stop()
		if err != nil {
			return presentSignInFailure(a, err)
		}
		return nil
	},
}

// presentSignInFailure explains a failed sign-in and returns a short error
// for the exit status.
func presentSignInFailure(a *app, err error) error {
	switch apperrors.KindOf(err) {
	case apperrors.SignInRejected:
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.Code >= 500 {
			pterm.Error.Printfln("The session API failed (HTTP %d). Try again later.", statusErr.Code)
		} else {
			pterm.Error.Println("E-mail or password incorrect.")
		}
		return errors.New("sign-in rejected")
	case apperrors.SignInMalformed:
		pterm.Error.Println("The session API answered with an unexpected response.")
		pterm.Println(logging.PresentError("Details", err))
		return errors.New("sign-in failed")
	case apperrors.SignInStorage:
		pterm.Error.Println("Signed in, but the session could not be saved to the credential store.")
		pterm.Println(logging.PresentError("Details", err))
		return errors.New("sign-in failed")
	default:
		return httperrors.Present(os.Stderr, errors.Unwrap(err), "signing in", httperrors.ExtractHostFromURL(a.cfg.APIURL))
	}
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Email to sign in with (prompted when empty)")
	rootCmd.AddCommand(loginCmd)
}

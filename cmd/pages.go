// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"io"

	"nextauth/cli/internal/auth"
	"nextauth/cli/internal/config"
	"nextauth/cli/internal/httperrors"
	"nextauth/cli/internal/router"

	"github.com/pterm/pterm"
)

func registerPages(r *router.Router, session *auth.Manager, cfg config.Config) {
	r.Handle(auth.DashboardPath, dashboardPage(session, cfg))
	r.Handle(auth.HomePath, homePage)
}

// dashboardPage renders the signed-in profile. Unauthenticated visitors get
// the sign-in hint instead.
func dashboardPage(session *auth.Manager, cfg config.Config) router.Page {
	return func(_ context.Context, w io.Writer) error {
		user := session.User()
		if user == nil {
			showNotLoggedIn(w)
			return nil
		}

		pterm.Fprintln(w)
		pterm.Fprintln(w, pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Signed in as: ")+pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(user.Email))
		pterm.Fprintln(w, pterm.NewStyle(pterm.FgLightCyan).Sprint("→ API:          ")+pterm.NewStyle(pterm.FgLightBlue).Sprint(httperrors.ExtractHostFromURL(cfg.APIURL)))
		pterm.Fprintln(w)

		list := func(title string, values []string) {
			pterm.Fprintln(w, pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint(title))
			if len(values) == 0 {
				pterm.Fprintln(w, pterm.Gray("  (none)"))
				return
			}
			for _, v := range values {
				pterm.Fprintln(w, "  • "+v)
			}
		}
		list("Roles", user.Roles)
		list("Permissions", user.Permissions)
		return nil
	}
}

func homePage(_ context.Context, w io.Writer) error {
	pterm.Fprintln(w, "🔒 You're signed out.")
	pterm.Fprintln(w, "   Run 'nextauth login' to sign in.")
	return nil
}

func showNotLoggedIn(w io.Writer) {
	pterm.Fprintln(w, "🔒 You're not logged in yet!")
	pterm.Fprintln(w, "   Run 'nextauth login' to get started.")
}

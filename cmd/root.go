// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the nextauth CLI.
// It signs users in against a session API, keeps the session in the OS
// keychain between invocations, and renders the dashboard and home pages
// in the terminal.
package cmd

import (
	"context"
	"fmt"
	"os"

	"nextauth/cli/internal/config"

	"github.com/spf13/cobra"
)

// annotationSkipSession marks commands that run without restoring a session.
const annotationSkipSession = "nextauth/skip-session"

var (
	showVersion bool
	verbose     bool
	apiURLFlag  string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "nextauth",
	Short:         "Sign in to a session API and manage the stored session",
	Long:          `nextauth signs you in against a session API, keeps the issued tokens in your OS keychain, and restores the session on every run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !needsSession(cmd) {
			return nil
		}
		a, err := appFor(cmd)
		if err != nil {
			return err
		}
		a.restore(cmd.Context())
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return printVersion(cmd)
		}
		return cmd.Help()
	},
}

// needsSession reports whether cmd works on the stored session.
func needsSession(cmd *cobra.Command) bool {
	if cmd == cmd.Root() || cmd.Annotations[annotationSkipSession] == "true" {
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion":
			return false
		}
	}
	return true
}

// Execute runs the CLI application.
func Execute() {
	ctx := withAppSlot(context.Background())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and backend version information")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "Session API base URL (overrides "+config.KeyAPIURL+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

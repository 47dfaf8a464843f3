// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"time"

	"nextauth/cli/internal/backend"

	"github.com/spf13/cobra"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"
)

// printVersion prints the CLI version and, when reachable, the API's.
func printVersion(cmd *cobra.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
	defer cancel()

	be := backend.New(cfg.APIURL, cfg.HTTPTimeout)
	backendVersion, err := be.GetVersion(ctx)
	if err != nil {
		backendVersion = "unreachable"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "nextauth %s\nbackend %s\n", Version, backendVersion)
	return nil
}

// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"time"

	"nextauth/cli/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show or change CLI settings",
	Annotations: map[string]string{annotationSkipSession: "true"},
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective settings",
	Annotations: map[string]string{annotationSkipSession: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, v, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		source := v.ConfigFileUsed()
		if source == "" {
			source = "(defaults)"
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-20s %s\n", "config file", source)
		fmt.Fprintf(w, "%-20s %s\n", config.KeyAPIURL, cfg.APIURL)
		fmt.Fprintf(w, "%-20s %s\n", config.KeyHTTPTimeout, cfg.HTTPTimeout)
		fmt.Fprintf(w, "%-20s %s\n", config.KeyLogLevel, cfg.LogLevel)
		fmt.Fprintf(w, "%-20s %s\n", config.KeyCredentialBackend, cfg.CredentialBackend)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:         "set <key> <value>",
	Short:       "Persist a setting to config.json",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{annotationSkipSession: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		key, value := args[0], args[1]
		switch key {
		case config.KeyAPIURL:
			cfg.APIURL = value
		case config.KeyHTTPTimeout:
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			cfg.HTTPTimeout = d
		case config.KeyLogLevel:
			cfg.LogLevel = value
		case config.KeyCredentialBackend:
			cfg.CredentialBackend = value
		default:
			return fmt.Errorf("unknown or unsupported setting %q", key)
		}
		path, err := config.Path()
		if err != nil {
			return err
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		pterm.Success.Printfln("%s saved to %s", key, path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nextauth/cli/internal/config"
	"nextauth/cli/internal/devapi"
	"nextauth/cli/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	devAddr       string
	devSigningKey string
)

// devserverCmd runs the local session API.
var devserverCmd = &cobra.Command{
	Use:         "devserver",
	Short:       "Run a local session API with demo accounts",
	Annotations: map[string]string{annotationSkipSession: "true"},
	Long: `The devserver command serves POST /sessions and GET /me on a local address so
the other commands can be tried without a real backend. It seeds two accounts:

  admin@example.com / admin    (administrator)
  editor@example.com / editor  (editor)

Access tokens are HS256 JWTs valid for 15 minutes. Without --signing-key (or
NEXTAUTH_DEV_SIGNING_KEY) a random key is generated, so tokens do not survive
a restart.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		key := []byte(devSigningKey)
		if len(key) == 0 {
			key = []byte(os.Getenv("NEXTAUTH_DEV_SIGNING_KEY"))
		}
		if len(key) == 0 {
			key = make([]byte, 32)
			if _, err := rand.Read(key); err != nil {
				return fmt.Errorf("generate signing key: %w", err)
			}
		}

		if cfg.LogLevel != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv, err := devapi.NewServer(devapi.Config{SigningKey: key, Version: Version}, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pterm.Success.Printfln("Session API listening on http://%s", devAddr)
		pterm.Println(pterm.Gray(fmt.Sprintf("Point the CLI at it with --api-url http://%s or %s in config.json", devAddr, config.KeyAPIURL)))
		if err := srv.ListenAndServe(ctx, devAddr); err != nil {
			logger.Error("devserver stopped", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	devserverCmd.Flags().StringVar(&devAddr, "addr", devapi.DefaultAddr, "Listen address")
	devserverCmd.Flags().StringVar(&devSigningKey, "signing-key", "", "HS256 signing key for access tokens")
	rootCmd.AddCommand(devserverCmd)
}

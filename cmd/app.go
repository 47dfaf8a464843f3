// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nextauth/cli/internal/auth"
	"nextauth/cli/internal/backend"
	"nextauth/cli/internal/config"
	apperrors "nextauth/cli/internal/errors"
	"nextauth/cli/internal/keychain"
	"nextauth/cli/internal/logging"
	"nextauth/cli/internal/router"
	"nextauth/cli/internal/xdg"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const locationFile = "location.json"

// app is everything one invocation shares: a single client, credential
// store, router and session manager.
type app struct {
	cfg     config.Config
	viper   *viper.Viper
	logger  *zap.Logger
	api     *backend.HTTP
	store   *keychain.Manager
	router  *router.Router
	session *auth.Manager
}

type appKey struct{}

// appSlot carries the invocation's app through the command context.
type appSlot struct{ app *app }

func withAppSlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, appKey{}, &appSlot{})
}

// appFor builds the app on first use and returns the same one afterwards
// within an invocation. Without a slot in the context every call builds anew.
func appFor(cmd *cobra.Command) (*app, error) {
	var slot *appSlot
	if ctx := cmd.Context(); ctx != nil {
		slot, _ = ctx.Value(appKey{}).(*appSlot)
	}
	if slot != nil && slot.app != nil {
		return slot.app, nil
	}
	a, err := newApp(cmd)
	if err != nil {
		return nil, err
	}
	if slot != nil {
		slot.app = a
	}
	return a, nil
}

// loadConfig reads config.json, NEXTAUTH_* variables and bound flags.
func loadConfig(cmd *cobra.Command) (config.Config, *viper.Viper, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config dir: %w", err)
	}
	v := config.NewViper(dir)
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return config.Config{}, nil, err
	}
	if verbose || os.Getenv("NEXTAUTH_VERBOSE") == "1" {
		v.Set(config.KeyLogLevel, "debug")
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, v, nil
}

// flagKeys maps command flags to the settings they override.
var flagKeys = map[string]string{
	"api-url": config.KeyAPIURL,
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", name, err)
		}
	}
	return nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, v, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	stateDir, err := xdg.StateDir()
	if err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	store, err := keychain.NewManager(keychain.Config{
		Backend:      cfg.CredentialBackend,
		FileDir:      stateDir,
		FilePassword: cfg.CredentialFilePassword,
		Logger:       logger.Named("keychain"),
	})
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	api := backend.New(cfg.APIURL, cfg.HTTPTimeout)
	statePath := filepath.Join(stateDir, locationFile)
	if last, err := router.LoadLocation(statePath); err == nil && last.Path != "" {
		logger.Debug("previous location", zap.String("path", last.Path), zap.Time("at", last.At))
	}
	r := router.New(
		router.WithOutput(cmd.OutOrStdout()),
		router.WithStateFile(statePath),
		router.WithLogger(logger.Named("router")),
	)
	session := auth.NewManager(store, api, r, logger)
	registerPages(r, session, cfg)

	logger.Debug("app ready",
		zap.String("api_url", cfg.APIURL),
		zap.String("credential_backend", cfg.CredentialBackend))

	return &app{cfg: cfg, viper: v, logger: logger, api: api, store: store, router: r, session: session}, nil
}

// restore runs the startup session restore. A failed restore has already
// signed the session out; the user only gets a notice.
func (a *app) restore(ctx context.Context) {
	err := a.session.RestoreSession(ctx)
	if err == nil {
		return
	}
	a.logger.Debug("restore", logging.Err(err))
	if apperrors.KindOf(err) == apperrors.RestoreFailed {
		pterm.Warning.Println("Your previous session could not be restored and was signed out.")
	}
}

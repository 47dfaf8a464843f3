// Package xdg provides helpers to resolve XDG Base Directory paths for nextauth.
// Configuration lives in the config directory; the last visited route and the
// encrypted file credential backend live in the state directory.
//
// The package handles fallback to traditional locations when XDG environment
// variables are not set and ensures private permissions on every directory
// it creates.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "nextauth"

// ConfigDir returns the XDG config directory for nextauth.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/nextauth when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for nextauth.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.local/state/nextauth when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func resolve(envVar string, homeRelative string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRelative)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}

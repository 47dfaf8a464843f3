// Package devapi is a local implementation of the session API the CLI
// talks to. It serves POST /sessions and GET /me so the client can be
// exercised end to end without the real backend.
package devapi

import (
	"errors"
	"time"
)

// Defaults for Config fields left empty.
const (
	DefaultIssuer   = "nextauth-devapi"
	DefaultTokenTTL = 15 * time.Minute
	DefaultAddr     = "127.0.0.1:3333"
)

// Config holds server settings.
type Config struct {
	SigningKey []byte
	Issuer     string
	TokenTTL   time.Duration
	// Version is reported by GET /version.
	Version string
	// Cost is the bcrypt cost for seeded passwords. Zero uses bcrypt.DefaultCost.
	Cost  int
	Users []SeedUser
}

// SeedUser is an account created when the server starts.
type SeedUser struct {
	Email       string
	Password    string
	Permissions []string
	Roles       []string
}

// DefaultUsers are the demo accounts served when no seed is configured.
func DefaultUsers() []SeedUser {
	return []SeedUser{
		{
			Email:       "admin@example.com",
			Password:    "admin",
			Permissions: []string{"users.list", "users.create", "metrics.list"},
			Roles:       []string{"administrator"},
		},
		{
			Email:       "editor@example.com",
			Password:    "editor",
			Permissions: []string{"users.list", "metrics.list"},
			Roles:       []string{"editor"},
		},
	}
}

func (c Config) withDefaults() (Config, error) {
	if len(c.SigningKey) == 0 {
		return c, errors.New("devapi: signing key is required")
	}
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.Users == nil {
		c.Users = DefaultUsers()
	}
	return c, nil
}

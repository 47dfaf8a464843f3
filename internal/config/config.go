// Package config loads and stores CLI configuration in the XDG config dir.
// Values come from config.json, NEXTAUTH_* environment variables and bound
// command flags, in increasing order of precedence. Secrets other than the
// optional file-backend passphrase go to the OS keychain, never here.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nextauth/cli/internal/xdg"

	"github.com/spf13/viper"
)

// Setting keys shared by viper, flags and the config file.
const (
	KeyAPIURL                 = "api_url"
	KeyHTTPTimeout            = "http_timeout"
	KeyLogLevel               = "log_level"
	KeyCredentialBackend      = "credential_backend"
	KeyCredentialFilePassword = "credential_file_password"
)

// Defaults applied when neither file, environment nor flags set a value.
const (
	DefaultAPIURL            = "http://localhost:3333"
	DefaultHTTPTimeout       = 10 * time.Second
	DefaultLogLevel          = "warn"
	DefaultCredentialBackend = "auto"
)

const fileName = "config.json"

// Config holds CLI settings.
type Config struct {
	APIURL                 string        `json:"api_url"`
	HTTPTimeout            time.Duration `json:"-"`
	LogLevel               string        `json:"log_level"`
	CredentialBackend      string        `json:"credential_backend"`
	CredentialFilePassword string        `json:"-"`
}

// NewViper returns a viper instance wired to the config dir and NEXTAUTH_ env.
func NewViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyCredentialBackend, DefaultCredentialBackend)
	v.SetDefault(KeyCredentialFilePassword, "")

	v.SetConfigName(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix("NEXTAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration; a missing file yields defaults.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	c := Config{
		APIURL:                 strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIURL)), "/"),
		HTTPTimeout:            v.GetDuration(KeyHTTPTimeout),
		LogLevel:               strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		CredentialBackend:      strings.ToLower(strings.TrimSpace(v.GetString(KeyCredentialBackend))),
		CredentialFilePassword: v.GetString(KeyCredentialFilePassword),
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("config: %s must be provided", KeyAPIURL)
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("config: %s must start with http:// or https://", KeyAPIURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: %s must be greater than zero", KeyHTTPTimeout)
	}
	switch c.CredentialBackend {
	case "auto", "file":
	default:
		return fmt.Errorf("config: %s must be auto or file, got %q", KeyCredentialBackend, c.CredentialBackend)
	}
	return nil
}

// Path returns the path to the config file, creating the config dir if needed.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Save writes the non-secret settings to path with 0600 permissions.
func Save(path string, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	out := struct {
		Config
		HTTPTimeout string `json:"http_timeout"`
	}{Config: c, HTTPTimeout: c.HTTPTimeout.String()}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

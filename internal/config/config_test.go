package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	v := NewViper(t.TempDir())
	c, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.APIURL != DefaultAPIURL || c.HTTPTimeout != DefaultHTTPTimeout || c.LogLevel != DefaultLogLevel || c.CredentialBackend != DefaultCredentialBackend {
		t.Errorf("Load() = %+v, want defaults", c)
	}
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	want := Config{
		APIURL:            "https://api.example.com",
		HTTPTimeout:       3 * time.Second,
		LogLevel:          "info",
		CredentialBackend: "file",
	}
	path := filepath.Join(dir, fileName)
	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}

	got, err := Load(NewViper(dir))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	if err := Save(filepath.Join(dir, fileName), Config{APIURL: "http://file", HTTPTimeout: time.Second, LogLevel: "warn", CredentialBackend: "auto"}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NEXTAUTH_API_URL", "http://env:9000/")

	got, err := Load(NewViper(dir))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.APIURL != "http://env:9000" {
		t.Errorf("APIURL = %q, want env value without trailing slash", got.APIURL)
	}
}

func TestValidate(t *testing.T) {
	base := Config{APIURL: "http://localhost:3333", HTTPTimeout: time.Second, CredentialBackend: "auto"}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty url", func(c *Config) { c.APIURL = "" }},
		{"no scheme", func(c *Config) { c.APIURL = "localhost:3333" }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"unknown backend", func(c *Config) { c.CredentialBackend = "vault" }},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides the thread-safe credential store for nextauth.
// It keeps named string values in the OS keychain/credential store the way a
// browser keeps cookies: every entry carries a max-age and a path scope, and
// an expired entry reads as absent.
//
// The package supports macOS Keychain, Windows Credential Manager, the Linux
// Secret Service/KWallet/pass backends, and an encrypted file backend for
// hosts without a native store.
package keychain

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/99designs/keyring"
	"go.uber.org/zap"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "nextauth"

// DefaultPath is the path scope used when Options.Path is empty.
const DefaultPath = "/"

// ErrNotFound is returned by backends when a key has no entry.
var ErrNotFound = errors.New("keychain: key not found")

// Options control how an entry is written.
type Options struct {
	// MaxAge is how long the entry stays readable. Zero or negative deletes it.
	MaxAge time.Duration
	// Path is the scope the entry applies to.
	Path string
}

// Entry is a stored value together with its scope and expiry.
type Entry struct {
	Value     string    `json:"value"`
	Path      string    `json:"path"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// keychainBackend defines the interface for raw keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Config selects and configures the backend.
type Config struct {
	// Backend is "auto" for the platform's native store or "file" for the
	// encrypted file store.
	Backend string
	// FileDir is where the file backend keeps its entries.
	FileDir string
	// FilePassword unlocks the file backend.
	FilePassword string
	Logger       *zap.Logger
}

// Manager provides centralized, thread-safe operations for the credential store.
type Manager struct {
	mu      sync.RWMutex
	backend keychainBackend
	logger  *zap.Logger
	now     func() time.Time
}

// NewManager creates a manager over the backend selected by cfg.
func NewManager(cfg Config) (*Manager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Backend == "" || cfg.Backend == "auto" {
		// Try native security backend first on macOS
		if runtime.GOOS == "darwin" {
			backend, err := newSecurityBackend(ServiceName, logger)
			if err == nil {
				return newManager(backend, logger), nil
			}
			logger.Debug("security command unavailable, falling back to keyring", zap.Error(err))
		}
	}

	ring, err := openRing(cfg)
	if err != nil {
		return nil, err
	}
	return newManager(ringBackend{ring: ring}, logger), nil
}

// NewWithKeyring wraps an already opened keyring, such as keyring.NewArrayKeyring.
func NewWithKeyring(ring keyring.Keyring, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newManager(ringBackend{ring: ring}, logger)
}

func newManager(backend keychainBackend, logger *zap.Logger) *Manager {
	return &Manager{backend: backend, logger: logger, now: time.Now}
}

// openRing opens the keyring with the backends allowed for this platform.
func openRing(cfg Config) (keyring.Keyring, error) {
	ringCfg := keyring.Config{
		ServiceName: ServiceName,
		PassPrefix:  ServiceName,
	}

	switch {
	case cfg.Backend == "file":
		if cfg.FileDir == "" {
			return nil, errors.New("file credential backend requires a directory")
		}
		if cfg.FilePassword == "" {
			return nil, errors.New("file credential backend requires credential_file_password")
		}
		ringCfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		ringCfg.FileDir = filepath.Join(cfg.FileDir, "credentials")
		ringCfg.FilePasswordFunc = keyring.FixedStringPrompt(cfg.FilePassword)
	case runtime.GOOS == "darwin":
		// Pass requires 'pass' utility installed: brew install pass
		ringCfg.AllowedBackends = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case runtime.GOOS == "windows":
		ringCfg.AllowedBackends = []keyring.BackendType{keyring.WinCredBackend}
		ringCfg.WinCredPrefix = ServiceName
	default:
		ringCfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		}
		ringCfg.LibSecretCollectionName = "login"
	}

	ring, err := keyring.Open(ringCfg)
	if err != nil {
		if cfg.Backend != "file" {
			return nil, fmt.Errorf("no native credential store available (set credential_backend=file to use an encrypted file): %w", err)
		}
		return nil, err
	}
	return ring, nil
}

// Set stores value under key for opts.MaxAge within opts.Path.
// A non-positive MaxAge deletes the key, matching cookie semantics.
// This method is thread-safe.
func (m *Manager) Set(key, value string, opts Options) error {
	if opts.MaxAge <= 0 {
		return m.Destroy(key)
	}
	path := opts.Path
	if path == "" {
		path = DefaultPath
	}
	entry := Entry{
		Value:     value,
		Path:      path,
		ExpiresAt: m.now().Add(opts.MaxAge).UTC().Truncate(time.Second),
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.backend.Set(key, string(b)); err != nil {
		return fmt.Errorf("store %q: %w", key, err)
	}
	m.logger.Debug("credential stored", zap.String("key", key), zap.String("path", path), zap.Time("expires_at", entry.ExpiresAt))
	return nil
}

// Get returns the value stored under key. The boolean is false when the key
// is absent or expired; expired entries are removed as a side effect.
// This method is thread-safe.
func (m *Manager) Get(key string) (string, bool, error) {
	entry, ok, err := m.Entry(key)
	if err != nil || !ok {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Entry returns the full stored entry for key.
// This method is thread-safe.
func (m *Manager) Entry(key string) (Entry, bool, error) {
	m.mu.RLock()
	raw, err := m.backend.Get(key)
	m.mu.RUnlock()
	if errors.Is(err, ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("load %q: %w", key, err)
	}
	if strings.TrimSpace(raw) == "" {
		return Entry{}, false, nil
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decode %q: %w", key, err)
	}
	if entry.Expired(m.now()) {
		m.logger.Debug("credential expired", zap.String("key", key), zap.Time("expires_at", entry.ExpiresAt))
		if err := m.Destroy(key); err != nil {
			return Entry{}, false, err
		}
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Destroy removes key. Removing an absent key is not an error.
// This method is thread-safe.
func (m *Manager) Destroy(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.backend.Delete(key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// ringBackend adapts a keyring.Keyring to keychainBackend.
type ringBackend struct {
	ring keyring.Keyring
}

func (r ringBackend) Set(key, value string) error {
	return r.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: ServiceName + " " + key,
	})
}

func (r ringBackend) Get(key string) (string, error) {
	it, err := r.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

func (r ringBackend) Delete(key string) error {
	err := r.ring.Remove(key)
	// the file backend reports a missing key as a missing file
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

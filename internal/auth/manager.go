// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides the session manager for the nextauth CLI.
// It signs users in against the session API, keeps the token pair in the
// credential store, restores the session on startup, and signs users out.
// The authenticated user lives only in memory; a new process rebuilds it
// from the stored token with RestoreSession.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nextauth/cli/internal/backend"
	apperrors "nextauth/cli/internal/errors"
	"nextauth/cli/internal/keychain"
	"nextauth/cli/internal/logging"

	"go.uber.org/zap"
)

// Credential store keys and the scope the tokens are written with.
const (
	TokenKey        = "nextauth.token"
	RefreshTokenKey = "nextauth.refreshToken"
	TokenMaxAge     = 30 * 24 * time.Hour
	TokenPath       = "/"
)

// Routes the manager navigates to.
const (
	DashboardPath = "/dashboard"
	HomePath      = "/"
)

const authorizationHeader = "Authorization"

// CredentialStore keeps named values with an expiry and a path scope.
type CredentialStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string, opts keychain.Options) error
	Destroy(key string) error
}

// Navigator moves the application to a route.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// Manager owns the in-memory user and the session side effects around it.
// One Manager is built per process and shared by every consumer.
type Manager struct {
	store  CredentialStore
	api    backend.API
	router Navigator
	logger *zap.Logger

	// commit serializes credential writes, user assignment, the default
	// header and navigation so overlapping sign-ins never interleave.
	commit sync.Mutex

	mu   sync.RWMutex
	user *User

	restoreOnce sync.Once
	restoreErr  error
}

// NewManager wires a Manager to its collaborators.
func NewManager(store CredentialStore, api backend.API, router Navigator, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		api:    api,
		router: router,
		logger: logger.Named("session"),
	}
}

// User returns a copy of the signed-in user, or nil.
func (m *Manager) User() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.clone()
}

// IsAuthenticated reports whether a user is present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil
}

func (m *Manager) setUser(u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = u
}

// RestoreSession rebuilds the user from the stored token. Only the first
// call does any work; later calls return the first call's result.
//
// Without a stored token nothing happens. With one, GET /me is issued with
// that token; on success the user is set, on any failure the session is
// signed out. The returned error is informational: the failure has already
// been handled.
func (m *Manager) RestoreSession(ctx context.Context) error {
	m.restoreOnce.Do(func() {
		m.restoreErr = m.restore(ctx)
	})
	return m.restoreErr
}

func (m *Manager) restore(ctx context.Context) error {
	m.commit.Lock()
	token, ok, err := m.store.Get(TokenKey)
	if err != nil {
		defer m.commit.Unlock()
		m.logger.Warn("cannot read stored session; signing out", logging.Err(err))
		_ = m.signOutLocked(ctx)
		return apperrors.Wrap(apperrors.RestoreFailed, "read stored token", err)
	}
	if !ok {
		m.commit.Unlock()
		m.logger.Debug("no stored session")
		return nil
	}
	m.api.SetDefaultHeader(authorizationHeader, "Bearer "+token)
	m.commit.Unlock()
	m.logger.Debug("restoring stored session", logging.Secret("authorization", "Bearer "+token))

	profile, meErr := m.api.Me(ctx)

	m.commit.Lock()
	defer m.commit.Unlock()

	current, ok, err := m.store.Get(TokenKey)
	if err != nil {
		m.logger.Warn("cannot re-read stored session; signing out", logging.Err(err))
		_ = m.signOutLocked(ctx)
		return apperrors.Wrap(apperrors.RestoreFailed, "re-read stored token", errors.Join(err, meErr))
	}
	// A sign-in or sign-out that committed while /me was in flight owns the
	// session now; this result is stale either way.
	if !ok || current != token {
		m.logger.Debug("stored session changed during restore; discarding result")
		return nil
	}

	if meErr != nil {
		m.logger.Warn("session restore failed; signing out", logging.Err(meErr))
		_ = m.signOutLocked(ctx)
		return apperrors.Wrap(apperrors.RestoreFailed, "fetch profile", meErr)
	}

	m.setUser(newUser(profile.Email, profile.Permissions, profile.Roles))
	m.logger.Debug("session restored", zap.String("email", profile.Email))
	return nil
}

// SignIn posts creds to the session API. On success the token pair is
// stored, the user is set, subsequent requests carry the new bearer token,
// and the router moves to the dashboard, in that order.
//
// Failures leave every piece of state untouched and come back as
// *errors.E whose Kind is the reason: network, rejected, malformed or
// storage.
func (m *Manager) SignIn(ctx context.Context, creds Credentials) error {
	sess, err := m.api.CreateSession(ctx, creds.Email, creds.Password)
	if err != nil {
		failure := classify(err)
		m.logger.Warn("sign-in failed",
			zap.String("email", creds.Email),
			zap.String("reason", string(failure.Kind)),
			logging.Err(err))
		return failure
	}

	m.commit.Lock()
	defer m.commit.Unlock()

	if err := m.storeTokens(sess); err != nil {
		m.logger.Error("storing session tokens failed", zap.String("email", creds.Email), logging.Err(err))
		return apperrors.Wrap(apperrors.SignInStorage, "store session tokens", err)
	}
	m.setUser(newUser(creds.Email, sess.Permissions, sess.Roles))
	m.api.SetDefaultHeader(authorizationHeader, "Bearer "+sess.Token)
	m.logger.Info("signed in", zap.String("email", creds.Email))

	if err := m.router.Navigate(ctx, DashboardPath); err != nil {
		m.logger.Warn("navigation failed", zap.String("path", DashboardPath), logging.Err(err))
	}
	return nil
}

// storeTokens writes both tokens. If the second write fails the first is
// rolled back so the store never pairs tokens from different sessions.
// An unreadable previous value fails the call before anything is written.
func (m *Manager) storeTokens(sess backend.Session) error {
	opts := keychain.Options{MaxAge: TokenMaxAge, Path: TokenPath}
	type previous struct {
		key   string
		value string
		ok    bool
	}
	writes := []struct{ key, value string }{
		{TokenKey, sess.Token},
		{RefreshTokenKey, sess.RefreshToken},
	}

	// Read every previous value before writing anything; without them a
	// rollback could not tell a missing entry from an unreadable one.
	prevs := make([]previous, 0, len(writes))
	for _, w := range writes {
		value, ok, err := m.store.Get(w.key)
		if err != nil {
			return fmt.Errorf("read previous %s: %w", w.key, err)
		}
		prevs = append(prevs, previous{key: w.key, value: value, ok: ok})
	}

	var written []previous
	for i, w := range writes {
		if err := m.store.Set(w.key, w.value, opts); err != nil {
			for _, p := range written {
				var rbErr error
				if p.ok {
					rbErr = m.store.Set(p.key, p.value, opts)
				} else {
					rbErr = m.store.Destroy(p.key)
				}
				if rbErr != nil {
					m.logger.Error("rollback failed", zap.String("key", p.key), logging.Err(rbErr))
				}
			}
			return err
		}
		written = append(written, prevs[i])
	}
	return nil
}

// SignOut destroys both stored tokens, clears the user and the default
// Authorization header, and navigates home. It is safe to call in any
// state and navigates exactly once per call. Only credential store
// failures are returned.
func (m *Manager) SignOut(ctx context.Context) error {
	m.commit.Lock()
	defer m.commit.Unlock()
	return m.signOutLocked(ctx)
}

func (m *Manager) signOutLocked(ctx context.Context) error {
	var errs []error
	for _, key := range []string{TokenKey, RefreshTokenKey} {
		if err := m.store.Destroy(key); err != nil {
			errs = append(errs, err)
		}
	}
	m.setUser(nil)
	m.api.DeleteDefaultHeader(authorizationHeader)
	m.logger.Info("signed out")

	if err := m.router.Navigate(ctx, HomePath); err != nil {
		m.logger.Warn("navigation failed", zap.String("path", HomePath), logging.Err(err))
	}
	return errors.Join(errs...)
}

func classify(err error) *apperrors.E {
	var statusErr *backend.StatusError
	switch {
	case errors.As(err, &statusErr):
		return apperrors.Wrap(apperrors.SignInRejected, fmt.Sprintf("session request answered %d", statusErr.Code), err)
	case errors.Is(err, backend.ErrMalformedResponse):
		return apperrors.Wrap(apperrors.SignInMalformed, "unexpected session response", err)
	default:
		return apperrors.Wrap(apperrors.SignInNetwork, "session endpoint unreachable", err)
	}
}

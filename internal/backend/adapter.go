// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides interfaces and implementations for communicating with the session API.
// It defines the API contract for creating sessions, reading the current profile and
// checking the backend version, and an HTTP client carrying mutable default headers.
package backend

import "context"

// API defines backend operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide fakes for tests.
type API interface {
	// CreateSession exchanges credentials for a token pair and the caller's grants.
	CreateSession(ctx context.Context, email, password string) (Session, error)
	// Me retrieves the profile of the user the default Authorization header belongs to.
	Me(ctx context.Context) (Profile, error)
	GetVersion(ctx context.Context) (string, error)
	// SetDefaultHeader sets a header sent with every subsequent request.
	SetDefaultHeader(name, value string)
	// DeleteDefaultHeader stops sending name with subsequent requests.
	DeleteDefaultHeader(name string)
}

// Profile is the body of GET /me.
type Profile struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

// Session is the body of a successful POST /sessions.
type Session struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	Permissions  []string `json:"permissions"`
	Roles        []string `json:"roles"`
}

// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"encoding/json"
	"strings"
)

// CreateSession calls POST /sessions with {email, password}.
// The reply must carry token, refreshToken, permissions and roles; anything
// less is ErrMalformedResponse.
func (h *HTTP) CreateSession(ctx context.Context, email, password string) (Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var raw struct {
		Token        string    `json:"token"`
		RefreshToken string    `json:"refreshToken"`
		Permissions  *[]string `json:"permissions"`
		Roles        *[]string `json:"roles"`
	}
	if err := h.Post(ctx, PathSessions, body, &raw); err != nil {
		return Session{}, err
	}

	switch {
	case strings.TrimSpace(raw.Token) == "":
		return Session{}, malformed("POST %s: missing token", PathSessions)
	case strings.TrimSpace(raw.RefreshToken) == "":
		return Session{}, malformed("POST %s: missing refreshToken", PathSessions)
	case raw.Permissions == nil:
		return Session{}, malformed("POST %s: missing permissions", PathSessions)
	case raw.Roles == nil:
		return Session{}, malformed("POST %s: missing roles", PathSessions)
	}
	return Session{
		Token:        raw.Token,
		RefreshToken: raw.RefreshToken,
		Permissions:  *raw.Permissions,
		Roles:        *raw.Roles,
	}, nil
}

// Me calls GET /me with the default Authorization header.
// Only email, permissions and roles are kept; other fields are discarded.
func (h *HTTP) Me(ctx context.Context) (Profile, error) {
	var raw struct {
		Email       string    `json:"email"`
		Permissions *[]string `json:"permissions"`
		Roles       *[]string `json:"roles"`
	}
	if err := h.Get(ctx, PathMe, &raw); err != nil {
		return Profile{}, err
	}
	switch {
	case strings.TrimSpace(raw.Email) == "":
		return Profile{}, malformed("GET %s: missing email", PathMe)
	case raw.Permissions == nil:
		return Profile{}, malformed("GET %s: missing permissions", PathMe)
	case raw.Roles == nil:
		return Profile{}, malformed("GET %s: missing roles", PathMe)
	}
	return Profile{Email: raw.Email, Permissions: *raw.Permissions, Roles: *raw.Roles}, nil
}

// Raw issues an authenticated GET and returns the undecoded JSON body.
func (h *HTTP) Raw(ctx context.Context, path string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := h.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

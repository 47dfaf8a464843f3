// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import "slices"

// User is the authenticated profile held in memory.
type User struct {
	Email       string
	Permissions []string
	Roles       []string
}

// Credentials are what SignIn posts to the API.
type Credentials struct {
	Email    string
	Password string
}

func newUser(email string, permissions, roles []string) *User {
	return &User{
		Email:       email,
		Permissions: uniq(permissions),
		Roles:       uniq(roles),
	}
}

// HasPermission reports whether p is among the user's permissions.
func (u *User) HasPermission(p string) bool {
	return u != nil && slices.Contains(u.Permissions, p)
}

// HasRole reports whether r is among the user's roles.
func (u *User) HasRole(r string) bool {
	return u != nil && slices.Contains(u.Roles, r)
}

func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	return &User{
		Email:       u.Email,
		Permissions: slices.Clone(u.Permissions),
		Roles:       slices.Clone(u.Roles),
	}
}

// uniq drops repeated values keeping the first occurrence. The result is
// never nil so an empty grant list stays distinguishable from a missing user.
func uniq(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

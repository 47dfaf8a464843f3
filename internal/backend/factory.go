// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import "time"

// Endpoint paths served by the session API.
const (
	PathSessions = "/sessions"
	PathMe       = "/me"
	PathVersion  = "/version"
)

// New creates the HTTP API client for baseURL.
// A non-positive timeout falls back to 10 seconds.
func New(baseURL string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return newHTTP(baseURL, timeout)
}

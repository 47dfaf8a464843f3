package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// maxErrorBody caps how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

var _ API = (*HTTP)(nil)

// HTTP implements API over REST endpoints.
// Default headers set on it are sent with every request made through the
// same instance, the way an axios instance's defaults are.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://api.example.com")
	baseURL string
	// client is the underlying HTTP client with configured timeout
	client *http.Client

	mu      sync.RWMutex
	headers http.Header
}

// newHTTP creates a new HTTP client with the given base URL and timeout.
func newHTTP(baseURL string, timeout time.Duration) *HTTP {
	h := &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		headers: http.Header{},
	}
	h.headers.Set("Accept", "application/json")
	h.headers.Set("User-Agent", "nextauth-cli/1.0")
	return h
}

// BaseURL returns the API origin requests are sent to.
func (h *HTTP) BaseURL() string { return h.baseURL }

// SetDefaultHeader sets a header sent with every subsequent request.
func (h *HTTP) SetDefaultHeader(name, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.headers.Set(name, value)
}

// DeleteDefaultHeader stops sending name with subsequent requests.
func (h *HTTP) DeleteDefaultHeader(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.headers.Del(name)
}

// DefaultHeader returns the current default value for name.
func (h *HTTP) DefaultHeader(name string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.headers.Get(name)
}

// BearerToken returns the token carried by the default Authorization header.
func (h *HTTP) BearerToken() string {
	return parseBearerToken(h.DefaultHeader("Authorization"))
}

// Get issues GET path and decodes a JSON body into out when out is non-nil.
func (h *HTTP) Get(ctx context.Context, path string, out any) error {
	return h.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues POST path with body encoded as JSON and decodes the reply into out.
func (h *HTTP) Post(ctx context.Context, path string, body any, out any) error {
	return h.do(ctx, http.MethodPost, path, body, out)
}

func (h *HTTP) do(ctx context.Context, method, path string, body any, out any) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return err
	}
	h.mu.RLock()
	for name, values := range h.headers {
		req.Header[name] = append([]string(nil), values...)
	}
	h.mu.RUnlock()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(b)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return malformed("%s %s: %v", method, path, err)
	}
	return nil
}

// parseBearerToken extracts token from a value like "Bearer <token>" case-insensitively.
// Returns the token string without the "Bearer " prefix, or empty string if invalid format.
func parseBearerToken(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 7 || !strings.EqualFold(v[:6], "bearer") || v[6] != ' ' {
		return ""
	}
	return strings.TrimSpace(v[7:])
}

// GetVersion calls GET /version and returns the version string when available.
// No authentication required. This can be used to check connectivity to the backend service.
func (h *HTTP) GetVersion(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := h.Get(ctx, PathVersion, &out); err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			return "unknown", nil
		}
		return "", err
	}
	if out.Version == "" {
		return "unknown", nil
	}
	return out.Version, nil
}

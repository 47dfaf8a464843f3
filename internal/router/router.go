// Package router provides client-side navigation for the CLI.
// Pages are registered per path; navigating renders the page to the
// configured writer and records the location so the next invocation can
// tell where the previous one ended.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

// Page renders one route.
type Page func(ctx context.Context, w io.Writer) error

// Location is the persisted record of the last navigation.
type Location struct {
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

// Router dispatches navigations to registered pages.
type Router struct {
	mu        sync.Mutex
	pages     map[string]Page
	notFound  Page
	out       io.Writer
	stateFile string
	logger    *zap.Logger
	current   string
	history   []string
	now       func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithOutput sets where pages render. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option { return func(r *Router) { r.out = w } }

// WithStateFile persists every navigation to path as JSON.
func WithStateFile(path string) Option { return func(r *Router) { r.stateFile = path } }

// WithNotFound replaces the page rendered for unregistered paths.
func WithNotFound(p Page) Option { return func(r *Router) { r.notFound = p } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option { return func(r *Router) { r.logger = l } }

// New returns a Router with no pages registered.
func New(opts ...Option) *Router {
	r := &Router{
		pages:  map[string]Page{},
		out:    os.Stdout,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	r.notFound = func(_ context.Context, w io.Writer) error {
		pterm.Fprintln(w, pterm.Yellow("Page not found: ")+r.Current())
		return nil
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle registers page for path, replacing any previous registration.
func (r *Router) Handle(path string, page Page) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[Clean(path)] = page
}

// Navigate moves to path and renders its page. The location is recorded
// before rendering, so pages observe Current() == path.
func (r *Router) Navigate(ctx context.Context, path string) error {
	path = Clean(path)

	r.mu.Lock()
	r.current = path
	r.history = append(r.history, path)
	page, ok := r.pages[path]
	if !ok {
		page = r.notFound
	}
	stateFile := r.stateFile
	at := r.now().UTC()
	r.mu.Unlock()

	r.logger.Debug("navigate", zap.String("path", path), zap.Bool("registered", ok))

	var errs []error
	if stateFile != "" {
		if err := SaveLocation(stateFile, Location{Path: path, At: at}); err != nil {
			errs = append(errs, err)
		}
	}
	if err := page(ctx, r.out); err != nil {
		errs = append(errs, fmt.Errorf("render %s: %w", path, err))
	}
	return errors.Join(errs...)
}

// Current returns the path of the last navigation, or "" before the first.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns every navigated path in order.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// Clean normalizes a route: leading slash, no trailing slash except for root.
func Clean(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// SaveLocation writes loc to path with 0600 permissions.
func SaveLocation(path string, loc Location) error {
	b, err := json.MarshalIndent(loc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// LoadLocation reads a location written by SaveLocation. A missing file
// yields the zero Location.
func LoadLocation(path string) (Location, error) {
	var loc Location
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return loc, nil
		}
		return loc, err
	}
	if err := json.Unmarshal(data, &loc); err != nil {
		return loc, err
	}
	return loc, nil
}

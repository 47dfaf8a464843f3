package auth

import (
	"context"
	"errors"
	"sync"

	"nextauth/cli/internal/backend"
	"nextauth/cli/internal/keychain"
)

type storedValue struct {
	value string
	opts  keychain.Options
}

// fakeStore is an in-memory CredentialStore that records every write.
type fakeStore struct {
	mu      sync.Mutex
	values  map[string]storedValue
	writes  int
	failSet map[string]error
	failGet error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]storedValue{}, failSet: map[string]error{}}
}

func (s *fakeStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet != nil {
		return "", false, s.failGet
	}
	v, ok := s.values[key]
	return v.value, ok, nil
}

func (s *fakeStore) Set(key, value string, opts keychain.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failSet[key]; err != nil {
		return err
	}
	s.writes++
	s.values[key] = storedValue{value: value, opts: opts}
	return nil
}

func (s *fakeStore) Destroy(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *fakeStore) entry(key string) (storedValue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *fakeStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// fakeAPI implements backend.API with scripted responses.
type fakeAPI struct {
	mu        sync.Mutex
	headers   map[string]string
	meCalls   int
	meHeader  string
	create    func(ctx context.Context, email, password string) (backend.Session, error)
	me        func(ctx context.Context) (backend.Profile, error)
	createLog []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{headers: map[string]string{}}
}

func (a *fakeAPI) CreateSession(ctx context.Context, email, password string) (backend.Session, error) {
	a.mu.Lock()
	a.createLog = append(a.createLog, email)
	create := a.create
	a.mu.Unlock()
	if create == nil {
		return backend.Session{}, errors.New("no session script")
	}
	return create(ctx, email, password)
}

func (a *fakeAPI) Me(ctx context.Context) (backend.Profile, error) {
	a.mu.Lock()
	a.meCalls++
	a.meHeader = a.headers["Authorization"]
	me := a.me
	a.mu.Unlock()
	if me == nil {
		return backend.Profile{}, errors.New("no profile script")
	}
	return me(ctx)
}

func (a *fakeAPI) GetVersion(context.Context) (string, error) { return "test", nil }

func (a *fakeAPI) SetDefaultHeader(name, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.headers[name] = value
}

func (a *fakeAPI) DeleteDefaultHeader(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.headers, name)
}

func (a *fakeAPI) header(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.headers[name]
}

func (a *fakeAPI) meCallCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.meCalls
}

// fakeRouter records navigations and optionally runs a hook for each one,
// the way a page would render after the route changes.
type fakeRouter struct {
	mu     sync.Mutex
	paths  []string
	onNav  func(path string)
	navErr error
}

func (r *fakeRouter) Navigate(_ context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	hook := r.onNav
	r.mu.Unlock()
	if hook != nil {
		hook(path)
	}
	return r.navErr
}

func (r *fakeRouter) count(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.paths {
		if p == path {
			n++
		}
	}
	return n
}

func (r *fakeRouter) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func keyOpts() keychain.Options {
	return keychain.Options{MaxAge: TokenMaxAge, Path: TokenPath}
}

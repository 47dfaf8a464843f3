package devapi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

type account struct {
	email       string
	hash        []byte
	permissions []string
	roles       []string
}

// UserStore keeps accounts in memory, keyed by lower-cased email.
type UserStore struct {
	mu       sync.RWMutex
	accounts map[string]account
}

// NewUserStore hashes and stores seed.
func NewUserStore(seed []SeedUser, cost int) (*UserStore, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	s := &UserStore{accounts: make(map[string]account, len(seed))}
	for _, u := range seed {
		if err := s.Add(u, cost); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add hashes u's password and stores the account, replacing an existing one.
func (s *UserStore) Add(u SeedUser, cost int) error {
	email := normalizeEmail(u.Email)
	if email == "" {
		return errors.New("seed user without email")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
	if err != nil {
		return fmt.Errorf("hash password for %s: %w", email, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = account{
		email:       email,
		hash:        hash,
		permissions: append([]string{}, u.Permissions...),
		roles:       append([]string{}, u.Roles...),
	}
	return nil
}

// authenticate checks the password for email.
func (s *UserStore) authenticate(email, password string) (account, error) {
	a, ok := s.lookup(email)
	if !ok {
		return account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return account{}, ErrInvalidCredentials
	}
	return a, nil
}

func (s *UserStore) lookup(email string) (account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[normalizeEmail(email)]
	return a, ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

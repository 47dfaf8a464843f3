package auth_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nextauth/cli/internal/auth"
	"nextauth/cli/internal/backend"
	"nextauth/cli/internal/devapi"
	apperrors "nextauth/cli/internal/errors"
	"nextauth/cli/internal/keychain"
	"nextauth/cli/internal/router"

	"github.com/99designs/keyring"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func startDevAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := devapi.NewServer(devapi.Config{SigningKey: []byte("integration"), Cost: bcrypt.MinCost}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("devapi.NewServer() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// newProcess builds the manager, client and router the way one CLI
// invocation does, sharing store across invocations.
func newProcess(t *testing.T, baseURL string, store *keychain.Manager) (*auth.Manager, *backend.HTTP, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	api := backend.New(baseURL, 5*time.Second)
	r := router.New(router.WithOutput(&out))
	m := auth.NewManager(store, api, r, zaptest.NewLogger(t))
	r.Handle(auth.DashboardPath, func(_ context.Context, w io.Writer) error {
		u := m.User()
		if u == nil {
			_, err := io.WriteString(w, "signed out\n")
			return err
		}
		_, err := fmt.Fprintf(w, "dashboard %s\n", u.Email)
		return err
	})
	r.Handle(auth.HomePath, func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "home\n")
		return err
	})
	return m, api, &out
}

func TestSessionLifecycleAgainstDevAPI(t *testing.T) {
	ts := startDevAPI(t)
	store := keychain.NewWithKeyring(keyring.NewArrayKeyring(nil), zaptest.NewLogger(t))
	ctx := context.Background()

	first, api, out := newProcess(t, ts.URL, store)
	if err := first.RestoreSession(ctx); err != nil {
		t.Fatalf("RestoreSession() on empty store error = %v", err)
	}
	if err := first.SignIn(ctx, auth.Credentials{Email: "admin@example.com", Password: "admin"}); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if !strings.Contains(out.String(), "dashboard admin@example.com") {
		t.Errorf("dashboard output = %q", out.String())
	}
	token, ok, err := store.Get(auth.TokenKey)
	if err != nil || !ok {
		t.Fatalf("stored token: ok=%v err=%v", ok, err)
	}
	if api.BearerToken() != token {
		t.Error("default Authorization header does not carry the stored token")
	}
	entry, _, _ := store.Entry(auth.RefreshTokenKey)
	if entry.Path != "/" || time.Until(entry.ExpiresAt) < 29*24*time.Hour {
		t.Errorf("refresh token entry = %+v", entry)
	}

	second, _, _ := newProcess(t, ts.URL, store)
	if err := second.RestoreSession(ctx); err != nil {
		t.Fatalf("RestoreSession() error = %v", err)
	}
	u := second.User()
	if u == nil || u.Email != "admin@example.com" || !u.HasRole("administrator") || !u.HasPermission("users.list") {
		t.Fatalf("restored user = %+v", u)
	}

	if err := second.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	third, _, _ := newProcess(t, ts.URL, store)
	if err := third.RestoreSession(ctx); err != nil {
		t.Fatalf("RestoreSession() after sign-out error = %v", err)
	}
	if third.IsAuthenticated() {
		t.Error("session survived sign-out")
	}
}

func TestSignInWrongPasswordAgainstDevAPI(t *testing.T) {
	ts := startDevAPI(t)
	store := keychain.NewWithKeyring(keyring.NewArrayKeyring(nil), zaptest.NewLogger(t))

	m, _, out := newProcess(t, ts.URL, store)
	err := m.SignIn(context.Background(), auth.Credentials{Email: "admin@example.com", Password: "wrong"})
	if apperrors.KindOf(err) != apperrors.SignInRejected {
		t.Fatalf("SignIn() error = %v, want rejected", err)
	}
	if _, ok, _ := store.Get(auth.TokenKey); ok {
		t.Error("token stored after rejected sign-in")
	}
	if out.Len() != 0 {
		t.Errorf("rejected sign-in rendered %q", out.String())
	}
}

func TestRestoreWithForgedTokenSignsOut(t *testing.T) {
	ts := startDevAPI(t)
	store := keychain.NewWithKeyring(keyring.NewArrayKeyring(nil), zaptest.NewLogger(t))
	opts := keychain.Options{MaxAge: auth.TokenMaxAge, Path: auth.TokenPath}
	if err := store.Set(auth.TokenKey, "forged", opts); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(auth.RefreshTokenKey, "forged-refresh", opts); err != nil {
		t.Fatal(err)
	}

	m, api, out := newProcess(t, ts.URL, store)
	err := m.RestoreSession(context.Background())
	if apperrors.KindOf(err) != apperrors.RestoreFailed {
		t.Fatalf("RestoreSession() error = %v, want restore failure", err)
	}
	for _, key := range []string{auth.TokenKey, auth.RefreshTokenKey} {
		if _, ok, _ := store.Get(key); ok {
			t.Errorf("%s kept after failed restore", key)
		}
	}
	if api.DefaultHeader("Authorization") != "" {
		t.Error("Authorization header kept after failed restore")
	}
	if out.String() != "home\n" {
		t.Errorf("output = %q, want home page", out.String())
	}
}

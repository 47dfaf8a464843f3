package devapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := NewServer(Config{SigningKey: []byte("test-signing-key"), Cost: bcrypt.MinCost}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type sessionReply struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	Permissions  []string `json:"permissions"`
	Roles        []string `json:"roles"`
}

func signIn(t *testing.T, h http.Handler, email, password string) sessionReply {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/sessions", "", map[string]string{"email": email, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /sessions status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var out sessionReply
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return out
}

func TestCreateSessionReturnsTokenPair(t *testing.T) {
	s := newTestServer(t)
	out := signIn(t, s.Handler(), "admin@example.com", "admin")

	if out.Token == "" || out.RefreshToken == "" {
		t.Fatalf("token pair = %+v", out)
	}
	if len(out.Roles) != 1 || out.Roles[0] != "administrator" {
		t.Errorf("roles = %v", out.Roles)
	}
	again := signIn(t, s.Handler(), "admin@example.com", "admin")
	if again.RefreshToken == "" || again.RefreshToken == out.RefreshToken {
		t.Errorf("second refresh token = %q, want a fresh one", again.RefreshToken)
	}
}

func TestCreateSessionRejects(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"wrong password", map[string]string{"email": "admin@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"email": "ghost@example.com", "password": "admin"}, http.StatusUnauthorized},
		{"missing email", map[string]string{"password": "admin"}, http.StatusBadRequest},
		{"not json", "plain", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s.Handler(), http.MethodPost, "/sessions", "", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMeWithToken(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	sess := signIn(t, h, "Editor@Example.com", "editor")

	rec := doJSON(t, h, http.MethodGet, "/me", sess.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /me status = %d", rec.Code)
	}
	var me struct {
		Email       string   `json:"email"`
		Permissions []string `json:"permissions"`
		Roles       []string `json:"roles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if me.Email != "editor@example.com" || len(me.Roles) != 1 || me.Roles[0] != "editor" {
		t.Errorf("GET /me = %+v", me)
	}
}

func TestMeRejectsBadTokens(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	sess := signIn(t, h, "admin@example.com", "admin")

	other, err := NewServer(Config{SigningKey: []byte("another-key"), Cost: bcrypt.MinCost}, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	foreign := signIn(t, other.Handler(), "admin@example.com", "admin")

	expired := newTestServer(t)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale := signIn(t, expired.Handler(), "admin@example.com", "admin")

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-jwt"},
		{"refresh token", sess.RefreshToken},
		{"other signing key", foreign.Token},
		{"expired", stale.Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodGet, "/me", tt.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestUsersRequiresPermission(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, err := NewServer(Config{
		SigningKey: []byte("k"),
		Cost:       bcrypt.MinCost,
		Users: []SeedUser{
			{Email: "viewer@example.com", Password: "pw", Permissions: []string{}, Roles: []string{}},
			{Email: "lister@example.com", Password: "pw", Permissions: []string{"users.list"}, Roles: []string{}},
		},
	}, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	h := s.Handler()

	viewer := signIn(t, h, "viewer@example.com", "pw")
	if rec := doJSON(t, h, http.MethodGet, "/users", viewer.Token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("viewer GET /users = %d, want 403", rec.Code)
	}
	lister := signIn(t, h, "lister@example.com", "pw")
	if rec := doJSON(t, h, http.MethodGet, "/users", lister.Token, nil); rec.Code != http.StatusOK {
		t.Errorf("lister GET /users = %d, want 200", rec.Code)
	}
}

func TestNewServerRequiresSigningKey(t *testing.T) {
	if _, err := NewServer(Config{}, nil); err == nil {
		t.Error("NewServer() without signing key succeeded")
	}
}

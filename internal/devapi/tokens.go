package devapi

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const refreshTokenBytes = 32

// claims are embedded in the access token.
type claims struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
	jwt.RegisteredClaims
}

// mintAccessToken creates a signed HS256 token for a.
func mintAccessToken(a account, issuer string, key []byte, ttl time.Duration, now time.Time) (string, error) {
	issuedAt := now.UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email:       a.email,
		Permissions: a.permissions,
		Roles:       a.roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   a.email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(-30 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	})
	return token.SignedString(key)
}

// parseAccessToken validates raw and returns its subject.
func parseAccessToken(raw, issuer string, key []byte, now func() time.Time) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return "", err
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return c.Subject, nil
}

// newRefreshToken returns an opaque refresh token. The API exposes no
// refresh endpoint yet, so issued tokens are not tracked.
func newRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

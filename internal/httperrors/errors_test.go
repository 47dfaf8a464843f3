package httperrors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"deadline", fmt.Errorf("POST /sessions: %w", context.DeadlineExceeded), Timeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.invalid"}, DNS},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, ConnectionRefused},
		{"tls", errors.New("x509: certificate signed by unknown authority"), TLS},
		{"server", errors.New("GET /me: 503 Service Unavailable"), Server},
		{"other", errors.New("EOF"), Generic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestPresentNamesHostAndWraps(t *testing.T) {
	var out bytes.Buffer
	cause := errors.New("dial tcp 127.0.0.1:3333: connect: connection refused")

	err := Present(&out, cause, "signing in", "localhost:3333")
	if !errors.Is(err, cause) {
		t.Errorf("Present() = %v, want it to wrap the cause", err)
	}
	if !strings.Contains(out.String(), "localhost:3333") || !strings.Contains(out.String(), "nextauth devserver") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPresentNil(t *testing.T) {
	var out bytes.Buffer
	if err := Present(&out, nil, "x", "y"); err != nil || out.Len() != 0 {
		t.Errorf("Present(nil) = %v, output %q", err, out.String())
	}
}

func TestExtractHostFromURL(t *testing.T) {
	tests := map[string]string{
		"http://localhost:3333":       "localhost:3333",
		"https://api.example.com/v1/": "api.example.com",
		"not a url":                   "server",
	}
	for in, want := range tests {
		if got := ExtractHostFromURL(in); got != want {
			t.Errorf("ExtractHostFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

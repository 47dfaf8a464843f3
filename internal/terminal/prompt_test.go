package terminal

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrompterReadsLines(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompterFrom(strings.NewReader("  admin@example.com \nsecret"), &out)

	email, err := p.ReadLine("Email: ")
	if err != nil || email != "admin@example.com" {
		t.Fatalf("ReadLine() = %q, %v", email, err)
	}
	password, err := p.ReadPassword("Password: ")
	if err != nil || password != "secret" {
		t.Fatalf("ReadPassword() = %q, %v", password, err)
	}
	if out.String() != "Email: Password: " {
		t.Errorf("prompts = %q", out.String())
	}
}

func TestPrompterEmptyInput(t *testing.T) {
	p := NewPrompterFrom(strings.NewReader("\n"), &bytes.Buffer{})
	if _, err := p.ReadLine("Email: "); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("ReadLine() error = %v, want ErrEmptyInput", err)
	}
}

func TestClearPreviousLines(t *testing.T) {
	var out bytes.Buffer
	ClearPreviousLines(&out, 10)
	if got := strings.Count(out.String(), "\x1b[2K"); got != 2 {
		t.Errorf("cleared %d lines, want 2", got)
	}
}

package keychain

import (
	"io"
	"log/slog"
	"runtime"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveFromEnvironment(t *testing.T) {
	t.Setenv(EnvVar, "di-abcdef1234567890")

	cred, err := NewProvider(testLogger()).Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if cred.Token != "di-abcdef1234567890" {
		t.Errorf("Token = %q, want the environment value", cred.Token)
	}
	if cred.Source != "environment" {
		t.Errorf("Source = %q, want environment", cred.Source)
	}
}

func TestResolveTrimsEnvironmentValue(t *testing.T) {
	t.Setenv(EnvVar, "  di-abcdef1234567890\n")

	cred, err := NewProvider(testLogger()).Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if cred.Token != "di-abcdef1234567890" {
		t.Errorf("Token = %q, want trimmed value", cred.Token)
	}
}

func TestResolveRejectsShortToken(t *testing.T) {
	t.Setenv(EnvVar, "short")

	if _, err := NewProvider(testLogger()).Resolve(); err == nil {
		t.Fatal("Resolve() succeeded with a placeholder token")
	}
}

func TestResolveMissingEverywhere(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("a developer keychain may hold a real token")
	}
	t.Setenv(EnvVar, "")

	_, err := NewProvider(testLogger()).Resolve()
	if err == nil {
		t.Fatal("Resolve() succeeded with no token configured")
	}
	if !strings.Contains(err.Error(), EnvVar) {
		t.Errorf("error %q does not mention the environment variable", err)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"", false},
		{"   ", false},
		{"short", false},
		{"exactly10!", false},
		{"elevenchars", true},
		{"  di-abcdef1234567890  ", true},
	}

	for _, tt := range tests {
		if got := Valid(tt.token); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

package keychain

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/user"
	"runtime"
	"strings"
)

const (
	// EnvVar is the environment variable checked before the keychain.
	EnvVar = "DEEPINFRA_API_KEY"

	// serviceName is the keychain item the token is stored under.
	serviceName = "deepinfra"

	// minTokenLength guards against placeholder values; real tokens are
	// well over ten characters.
	minTokenLength = 10
)

// Credential is a resolved API token and where it came from.
type Credential struct {
	Token  string
	Source string // "environment" or "keychain"
}

// Provider resolves API credentials.
type Provider struct {
	logger *slog.Logger
}

// NewProvider creates a credential provider.
func NewProvider(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{logger: logger}
}

// Resolve returns the API token from the environment or, on macOS, the
// system keychain. A token that is present but too short is a configuration
// error, not a miss.
func (p *Provider) Resolve() (*Credential, error) {
	if token := strings.TrimSpace(os.Getenv(EnvVar)); token != "" {
		if !Valid(token) {
			return nil, fmt.Errorf("token in %s is too short to be a real API key", EnvVar)
		}
		p.logger.Debug("API token resolved", slog.String("source", "environment"))
		return &Credential{Token: token, Source: "environment"}, nil
	}

	if runtime.GOOS == "darwin" {
		token, err := p.fromKeychain()
		if err == nil {
			if !Valid(token) {
				return nil, fmt.Errorf("token in keychain item %q is too short to be a real API key", serviceName)
			}
			p.logger.Debug("API token resolved", slog.String("source", "keychain"))
			return &Credential{Token: token, Source: "keychain"}, nil
		}
		p.logger.Debug("Keychain lookup failed", slog.String("error", err.Error()))
	}

	return nil, fmt.Errorf("no API token found: set %s or store one with `security add-generic-password -a %s -s %s -w`",
		EnvVar, currentUsername(), serviceName)
}

// fromKeychain reads the token with the macOS security tool.
func (p *Provider) fromKeychain() (string, error) {
	cmd := exec.Command("security", "find-generic-password",
		"-a", currentUsername(),
		"-s", serviceName,
		"-w")

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("keychain item %q not readable: %w", serviceName, err)
	}

	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("keychain item %q is empty", serviceName)
	}
	return token, nil
}

// Valid reports whether a token is plausibly a real API key.
func Valid(token string) bool {
	return len(strings.TrimSpace(token)) > minTokenLength
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

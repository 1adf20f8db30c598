// ABOUTME: Environment-driven configuration for the editor server
// ABOUTME: Parses GALTON_* variables with safe loopback-only defaults

package editor

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// DefaultBind is the address the server listens on when GALTON_BIND is unset.
// The loopback default keeps a token-less editor unreachable from other hosts.
const DefaultBind = "127.0.0.1:7792"

var (
	// ErrRemoteWithoutToken is returned when GALTON_ALLOW_REMOTE is set
	// but no GALTON_AUTH_TOKEN has been configured.
	ErrRemoteWithoutToken = errors.New("GALTON_ALLOW_REMOTE requires GALTON_AUTH_TOKEN to be set")

	// ErrNonLoopbackBind is returned when the bind address is not a loopback
	// address and remote access has not been explicitly allowed.
	ErrNonLoopbackBind = errors.New("refusing to bind to a non-loopback address without GALTON_ALLOW_REMOTE")
)

// Config holds the server settings resolved from the environment.
type Config struct {
	// Home is the directory for editor state (GALTON_HOME, default ~/.galton).
	Home string
	// Bind is the listen address (GALTON_BIND, default 127.0.0.1:7792).
	Bind string
	// DBPath is the sqlite file for saved models (GALTON_DB, default Home/models.db).
	DBPath string
	// AuthToken, when non-empty, requires Bearer auth on /api routes (GALTON_AUTH_TOKEN).
	AuthToken string
	// AllowRemote permits non-loopback bind addresses (GALTON_ALLOW_REMOTE).
	AllowRemote bool
}

// ConfigFromEnv builds a Config from GALTON_* environment variables and
// validates the bind address. Binding beyond loopback requires both
// GALTON_ALLOW_REMOTE and an auth token.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Home:        nonEmptyEnv("GALTON_HOME"),
		Bind:        envOrDefault("GALTON_BIND", DefaultBind),
		AuthToken:   nonEmptyEnv("GALTON_AUTH_TOKEN"),
		AllowRemote: boolEnv("GALTON_ALLOW_REMOTE"),
	}

	if cfg.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.Home = filepath.Join(home, ".galton")
	}
	cfg.DBPath = envOrDefault("GALTON_DB", filepath.Join(cfg.Home, "models.db"))

	if cfg.AllowRemote && cfg.AuthToken == "" {
		return Config{}, ErrRemoteWithoutToken
	}
	if err := validateBind(cfg.Bind, cfg.AllowRemote); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validateBind rejects non-loopback bind addresses unless remote access
// was explicitly enabled.
func validateBind(bind string, allowRemote bool) error {
	if allowRemote {
		return nil
	}
	host, _, err := net.SplitHostPort(bind)
	if err != nil {
		return fmt.Errorf("invalid bind address %q: %w", bind, err)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNonLoopbackBind, bind)
}

func envOrDefault(key, fallback string) string {
	if v := nonEmptyEnv(key); v != "" {
		return v
	}
	return fallback
}

func nonEmptyEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func boolEnv(key string) bool {
	switch strings.ToLower(nonEmptyEnv(key)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

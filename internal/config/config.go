// Package config loads server configuration from environment variables.
//
// We use sethvargo/go-envconfig instead of hand-rolled os.Getenv calls:
// defaults live in struct tags next to the field they configure, and parsing
// (string → int, etc.) happens in one place with a single error path.
package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// InsecureDefaultSecret is the JWT secret used when JWT_SECRET is unset.
// It exists so the server starts out of the box for local development; main
// logs a loud warning when it is in effect. Never deploy with it.
const InsecureDefaultSecret = "insecure-dev-secret"

// Config holds everything the server needs at startup.
type Config struct {
	Port int    `env:"PORT,       default=8080"`
	Env  string `env:"ENV,        default=development"`

	// DBPath is the SQLite database file. Use ":memory:" for a throwaway DB.
	DBPath string `env:"DB_PATH,   default=data/gamestock.db"`

	// JWTSecret signs session tokens. Generate with: openssl rand -hex 32
	JWTSecret string `env:"JWT_SECRET"`

	// UploadDir receives game images; it is served at /uploads/.
	UploadDir string `env:"UPLOAD_DIR, default=data/uploads"`

	// GitHub OAuth is optional — the password login always works, and the
	// OAuth routes are only registered when both credentials are present.
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: processing environment: %w", err)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = InsecureDefaultSecret
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return &cfg, nil
}

// Production reports whether the server runs with production settings
// (currently: the Secure flag on the session cookie).
func (c *Config) Production() bool {
	return c.Env == "production"
}

// UsingDefaultSecret reports whether the insecure fallback secret is active.
func (c *Config) UsingDefaultSecret() bool {
	return c.JWTSecret == InsecureDefaultSecret
}

// GitHubEnabled reports whether the OAuth login routes should be registered.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

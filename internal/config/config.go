package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string `env:"ENV" envDefault:"development"` // "development", "production", etc.

	// Server
	ServerAddr string `env:"SERVER_ADDR" envDefault:":3000"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	// Database
	DatabaseURL      string `env:"DATABASE_URL" envDefault:"postgres://localhost:5432/diversityorgs?sslmode=disable"`
	DatabaseWaitSecs int    `env:"DATABASE_WAIT_SECONDS" envDefault:"30"`

	// Sessions are kept in memory unless REDIS_URL is set
	RedisURL string `env:"REDIS_URL"`

	// Moderation events are only published when NATS_URL is set
	NATSURL string `env:"NATS_URL"`

	// TLS
	TLSEnabled  bool   `env:"TLS_ENABLED"`
	TLSCertFile string `env:"TLS_CERT_FILE"`
	TLSKeyFile  string `env:"TLS_KEY_FILE"`

	// OIDC
	OIDCIssuer       string `env:"OIDC_ISSUER"`
	OIDCClientID     string `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `env:"OIDC_REDIRECT_URL" envDefault:"http://localhost:3000/auth/callback"`

	// Session
	SessionSecret string `env:"SESSION_SECRET" envDefault:"change-me-in-production-min-32-chars"` // min 32 chars

	// CORS
	CORSOrigins string `env:"CORS_ORIGINS"` // Comma-separated allowed origins

	// Rate limiting, per IP per minute
	RateLimit int `env:"RATE_LIMIT" envDefault:"100"`

	// Website checks, a zero interval disables them
	WebsiteCheckInterval time.Duration `env:"WEBSITE_CHECK_INTERVAL" envDefault:"6h"`
	WebsiteCheckMaxAge   time.Duration `env:"WEBSITE_CHECK_MAX_AGE" envDefault:"168h"`

	// Maps
	MapsKey string `env:"MAPS_KEY"` // forwarded to the map widget, never used server-side

	// Files
	TaxonomyFile    string `env:"TAXONOMY_FILE" envDefault:"taxonomy.yaml"`
	AuthzPolicyFile string `env:"AUTHZ_POLICY_FILE"` // optional casbin CSV policy, replaces the built-in one
	LogFile         string `env:"LOG_FILE"`          // optional rotating log file in addition to stderr

	// SMTP
	SMTPEnabled  bool   `env:"SMTP_ENABLED"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Diversity Orgs"`

	// Email notification toggles
	EmailNotifyModerators bool `env:"EMAIL_NOTIFY_MODERATORS" envDefault:"true"`
	EmailNotifyClaimants  bool `env:"EMAIL_NOTIFY_CLAIMANTS" envDefault:"true"`

	// Site Branding
	SiteTitle   string `env:"SITE_TITLE" envDefault:"Diversity Orgs"`
	SiteTagline string `env:"SITE_TAGLINE" envDefault:"Find diversity-in-tech organizations near you"`
	SiteFooter  string `env:"SITE_FOOTER" envDefault:"Diversity Orgs - a community directory"`
	SiteLogoURL string `env:"SITE_LOGO_URL"`
}

// Load reads a .env file if one exists, then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that are unsafe outside development.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}
	if !c.IsDev() && strings.HasPrefix(c.SessionSecret, "change-me") {
		return errors.New("SESSION_SECRET must be changed in production")
	}
	if c.TLSEnabled && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE are required when TLS_ENABLED is set")
	}
	return nil
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsOIDCEnabled returns true if an identity provider is configured.
func (c *Config) IsOIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

// IsEmailEnabled returns true if SMTP is fully configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

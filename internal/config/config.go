package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every environment variable name.
const Prefix = "OUTREACH_"

// Database drivers accepted by DBDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrMissingCSRFKey   = errors.New("OUTREACH_CSRF_KEY is required in production")
	ErrMissingJWTSecret = errors.New("OUTREACH_JWT_SECRET is required in production")
	ErrInvalidCSRFKey   = errors.New("OUTREACH_CSRF_KEY must be 64 hex characters")
	ErrInvalidDriver    = errors.New("OUTREACH_DB_DRIVER must be sqlite or postgres")
	ErrInvalidTimezone  = errors.New("OUTREACH_TIMEZONE is not a known IANA zone")
)

// Config is the process configuration, read from OUTREACH_* environment variables.
type Config struct {
	Env         string `env:"ENV" envDefault:"development"`
	Addr        string `env:"ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"outreach.db"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	CSRFKey    string        `env:"CSRF_KEY"`
	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	ResendKey string `env:"RESEND_KEY"`
	EmailFrom string `env:"EMAIL_FROM" envDefault:"Outreach <noreply@example.org>"`
	ReplyTo   string `env:"EMAIL_REPLY_TO"`

	SlowQueryMs        int           `env:"SLOW_QUERY_MS" envDefault:"50"`
	SlowRequestMs      int           `env:"SLOW_REQUEST_MS" envDefault:"200"`
	RealtimeDebounce   time.Duration `env:"REALTIME_DEBOUNCE" envDefault:"500ms"`
	RateLimitPerSecond int           `env:"RATE_LIMIT_PER_SECOND" envDefault:"10"`
}

// Load reads the configuration from the environment and validates it.
// PRE: none
// POST: Returns a validated Config or the first problem found
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be expressed as struct tags.
func (c Config) Validate() error {
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverPostgres {
		return ErrInvalidDriver
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimezone, c.Timezone)
	}
	if _, err := c.CSRFKeyBytes(); err != nil {
		return err
	}
	if c.IsProduction() {
		if c.CSRFKey == "" {
			return ErrMissingCSRFKey
		}
		if c.JWTSecret == "" {
			return ErrMissingJWTSecret
		}
	}
	return nil
}

// CSRFKeyBytes decodes CSRFKey. An unset key yields nil, and the server then
// generates a per-process key.
// POST: Returns 32 bytes, nil, or ErrInvalidCSRFKey
func (c Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(c.CSRFKey)
	if err != nil || len(b) != 32 {
		return nil, ErrInvalidCSRFKey
	}
	return b, nil
}

// IsProduction reports whether the process runs with production hardening.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the organisation's timezone.
// PRE: Validate has passed
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

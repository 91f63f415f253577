package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Asset source selectors. CDN serves framework assets from public CDNs during
// development; local serves the built bundle in production images.
const (
	AssetSourceCDN   = "cdn"
	AssetSourceLocal = "local"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppName string `envconfig:"APP_NAME" default:"gatehouse"`
	AppEnv  string `envconfig:"APP_ENV" default:"development"`
	AppAddr string `envconfig:"APP_ADDR" default:":8080"`

	ReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"APP_IDLE_TIMEOUT" default:"60s"`

	// SecretKey signs session bearer tokens.
	SecretKey string        `envconfig:"SECRET_KEY" required:"true"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"15m"`

	// PGDSN, when set, takes precedence over the discrete DATABASE_* parts.
	PGDSN            string `envconfig:"PG_DSN"`
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"gatehouse"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"gatehouse"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSLMODE" default:"disable"`

	// AssetSource picks between CDN-sourced and locally-built static assets.
	// Empty means: local in production, CDN everywhere else.
	AssetSource string `envconfig:"ASSET_SOURCE"`

	RateLimitPerSecond int `envconfig:"RATE_LIMIT_PER_SECOND" default:"50"`
	RateLimitBurst     int `envconfig:"RATE_LIMIT_BURST" default:"100"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must be provided")
	}
	switch cfg.AssetSource {
	case "", AssetSourceCDN, AssetSourceLocal:
	default:
		return nil, fmt.Errorf("unsupported asset source %q", cfg.AssetSource)
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// UseCDNAssets reports whether static assets should be served from a CDN
// instead of the locally-built bundle.
func (c *Config) UseCDNAssets() bool {
	switch c.AssetSource {
	case AssetSourceCDN:
		return true
	case AssetSourceLocal:
		return false
	default:
		return !c.IsProduction()
	}
}

// DatabaseDSN assembles a PostgreSQL DSN from the discrete DATABASE_* parts,
// unless PG_DSN overrides the whole thing.
func (c *Config) DatabaseDSN() string {
	if c.PGDSN != "" {
		return c.PGDSN
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.DatabaseHost, c.DatabasePort),
		Path:   c.DatabaseName,
	}
	if c.DatabasePassword != "" {
		u.User = url.UserPassword(c.DatabaseUser, c.DatabasePassword)
	} else {
		u.User = url.User(c.DatabaseUser)
	}
	q := url.Values{}
	q.Set("sslmode", c.DatabaseSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Package config handles configuration for the server: defaults, JSON file
// overlay, command-line flags, and environment variables, applied in that
// order (last writer wins).
package config

import (
	"errors"
	"time"
)

// Config holds runtime settings for the authd server.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store,
//     which is only suitable for development.
//   - AccessTokenSecret / RefreshTokenSecret: HMAC secrets for signing the
//     two token kinds (HS256). Both are required and must differ, so a leaked
//     access secret cannot forge refresh tokens.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: lifetimes
//     of the two token kinds.
//   - BcryptCost: work factor for password hashing.
type Config struct {
	EndpointAddr                 string
	DatabaseDSN                  string
	AccessTokenSecret            string
	RefreshTokenSecret           string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	BcryptCost                   int
}

// LoadDefaults populates Config with development defaults. The token secrets
// have no default: they must come from flags, the JSON file, or environment.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = ""
	c.AccessTokenValidityDuration = 1 * time.Hour
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.BcryptCost = 10
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, command-line flags, and the environment.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	parseEnv(cfg)
	return cfg
}

// Validate reports configuration the server must not start with.
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" {
		return errors.New("access token secret is required")
	}
	if c.RefreshTokenSecret == "" {
		return errors.New("refresh token secret is required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		return errors.New("token validity durations must be positive")
	}
	return nil
}

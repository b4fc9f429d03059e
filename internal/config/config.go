// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads geoadmin settings from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/geoadmin/internal/session"
	"github.com/olegiv/geoadmin/internal/store"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Session store selection values.
const (
	SessionStoreAuto   = "auto"
	SessionStoreRedis  = string(session.StoreRedis)
	SessionStoreSQLite = string(session.StoreSQLite)
	SessionStoreMemory = string(session.StoreMemory)
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	ServerHost string `env:"APP_HOST" envDefault:"127.0.0.1"`
	ServerPort int    `env:"APP_PORT" envDefault:"3001"`
	BasePath   string `env:"APP_BASE_PATH" envDefault:"/admin"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"./data/geoadmin.db"`

	// Cache configuration
	RedisURL        string `env:"REDIS_URL"`                                      // Optional Redis URL for the shared cache and sessions
	CachePrefix     string `env:"CACHE_PREFIX" envDefault:"geoadmin:"`            // Redis key prefix
	GeoCacheTTLSecs int    `env:"GEO_CACHE_TTL" envDefault:"300"`                 // Reference data TTL in seconds
	CacheMaxSize    int    `env:"CACHE_MAX_SIZE" envDefault:"10000"`              // Max memory cache entries
	WarmSchedule    string `env:"GEO_CACHE_WARM_SCHEDULE" envDefault:"@every 5m"` // Empty disables the warmer

	SessionSecret      string `env:"SESSION_SECRET,required"`
	SessionTimeoutSecs int    `env:"SESSION_TIMEOUT" envDefault:"604800"`
	SessionStore       string `env:"SESSION_STORE" envDefault:"auto"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir   string `env:"LOG_DIR"` // Enables rotating file output

	ListingDefaultLimit int64 `env:"LISTING_DEFAULT_LIMIT" envDefault:"10"`
	ListingMaxLimit     int64 `env:"LISTING_MAX_LIMIT" envDefault:"100"`

	EventRetentionDays int `env:"EVENT_RETENTION_DAYS" envDefault:"90"` // 0 keeps events forever
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedis returns true if Redis is configured.
func (c Config) UseRedis() bool {
	return c.RedisURL != ""
}

// SessionTimeout is the session idle timeout. Non-positive values fall back
// to the default.
func (c Config) SessionTimeout() time.Duration {
	if c.SessionTimeoutSecs <= 0 {
		return session.DefaultIdleTimeout
	}
	return time.Duration(c.SessionTimeoutSecs) * time.Second
}

// GeoCacheTTL is the lifetime of cached countries and state lists.
func (c Config) GeoCacheTTL() time.Duration {
	if c.GeoCacheTTLSecs <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.GeoCacheTTLSecs) * time.Second
}

// EventRetention is how long audit events are kept; zero keeps them forever.
func (c Config) EventRetention() time.Duration {
	if c.EventRetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// Dialect returns the configured database dialect.
func (c Config) Dialect() store.Dialect {
	d, err := store.ParseDialect(c.DatabaseDriver)
	if err != nil {
		return store.DialectSQLite
	}
	return d
}

// SessionStoreKind resolves SESSION_STORE. With auto, Redis wins when
// configured, then the SQLite database, then process memory.
func (c Config) SessionStoreKind() session.StoreKind {
	switch c.SessionStore {
	case SessionStoreRedis, SessionStoreSQLite, SessionStoreMemory:
		return session.StoreKind(c.SessionStore)
	}
	switch {
	case c.UseRedis():
		return session.StoreRedis
	case c.Dialect() == store.DialectSQLite:
		return session.StoreSQLite
	default:
		return session.StoreMemory
	}
}

// ListLimits returns the listing page size bounds.
func (c Config) ListLimits() store.ListLimits {
	return store.ListLimits{Default: c.ListingDefaultLimit, Max: c.ListingMaxLimit}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if _, err := store.ParseDialect(cfg.DatabaseDriver); err != nil {
		return nil, fmt.Errorf("DATABASE_DRIVER: %w", err)
	}

	switch cfg.SessionStore {
	case SessionStoreAuto, SessionStoreRedis, SessionStoreSQLite, SessionStoreMemory:
	default:
		return nil, fmt.Errorf("SESSION_STORE must be one of auto, redis, sqlite, memory; got %q", cfg.SessionStore)
	}
	if cfg.SessionStore == SessionStoreRedis && !cfg.UseRedis() {
		return nil, fmt.Errorf("SESSION_STORE=redis requires REDIS_URL")
	}
	if cfg.SessionStore == SessionStoreSQLite && cfg.Dialect() != store.DialectSQLite {
		return nil, fmt.Errorf("SESSION_STORE=sqlite requires DATABASE_DRIVER=sqlite")
	}

	if cfg.ListingDefaultLimit <= 0 || cfg.ListingMaxLimit < cfg.ListingDefaultLimit {
		return nil, fmt.Errorf("LISTING_DEFAULT_LIMIT must be positive and not above LISTING_MAX_LIMIT (got %d, %d)",
			cfg.ListingDefaultLimit, cfg.ListingMaxLimit)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// DatabaseConfig is the subset of settings the maintenance commands need.
type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	URL    string `env:"DATABASE_URL" envDefault:"./data/geoadmin.db"`
}

// Dialect returns the configured database dialect.
func (d DatabaseConfig) Dialect() (store.Dialect, error) {
	return store.ParseDialect(d.Driver)
}

// LoadDatabase parses only the database settings, so maintenance commands
// run without a session secret.
func LoadDatabase() (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if _, err := cfg.Dialect(); err != nil {
		return nil, fmt.Errorf("DATABASE_DRIVER: %w", err)
	}
	return cfg, nil
}

// CSRFKey derives the 32-byte key handed to the CSRF middleware.
func (c Config) CSRFKey() []byte {
	return []byte(c.SessionSecret)[:MinSessionSecretLength]
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}

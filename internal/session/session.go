// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session builds the scs session manager and implements the session
// authority: principal binding for accounts and administrators, plus the
// per-session CSRF token.
package session

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/redis/go-redis/v9"
)

// DefaultIdleTimeout is the inactivity expiry used when none is configured.
const DefaultIdleTimeout = 7 * 24 * time.Hour

// unboundedLifetime stands in for "no absolute expiry": scs always applies
// Lifetime, so sessions end through IdleTimeout alone.
const unboundedLifetime = 100 * 365 * 24 * time.Hour

// StoreKind selects the session store backend.
type StoreKind string

// Session store backends.
const (
	StoreRedis  StoreKind = "redis"
	StoreSQLite StoreKind = "sqlite"
	StoreMemory StoreKind = "memory"
)

// Options configures New.
type Options struct {
	// IdleTimeout expires a session after this much inactivity.
	IdleTimeout time.Duration
	// Secure marks the cookie Secure and switches to a __Host- cookie name.
	Secure bool
	Store  StoreKind
	// DB backs StoreSQLite. It must contain the sessions table.
	DB *sql.DB
	// Redis backs StoreRedis.
	Redis *redis.Client
	// Prefix namespaces Redis session keys.
	Prefix string
}

// New creates a session manager backed by the configured store.
func New(opts Options) (*scs.SessionManager, error) {
	sm := scs.New()

	switch opts.Store {
	case StoreRedis:
		if opts.Redis == nil {
			return nil, fmt.Errorf("session store %q requires a redis client", opts.Store)
		}
		sm.Store = NewRedisStore(opts.Redis, opts.Prefix+"session:")
	case StoreSQLite:
		if opts.DB == nil {
			return nil, fmt.Errorf("session store %q requires a database", opts.Store)
		}
		sm.Store = sqlite3store.New(opts.DB)
	case StoreMemory, "":
		sm.Store = memstore.New()
	default:
		return nil, fmt.Errorf("unknown session store %q", opts.Store)
	}

	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	sm.IdleTimeout = idle
	sm.Lifetime = unboundedLifetime

	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = opts.Secure
	if opts.Secure {
		sm.Cookie.Name = "__Host-session"
	}

	return sm, nil
}

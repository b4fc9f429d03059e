// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"time"
)

// Manager owns the cache backend and the caches built on it.
type Manager struct {
	Backend     Cacher
	BackendType string
	IsFallback  bool
	Geo         *GeoCache

	redis *RedisCache
}

// NewManager builds the backend from cfg and a GeoCache over source.
func NewManager(cfg CacheConfig, source GeoSource, geoTTL time.Duration) (*Manager, error) {
	res, err := NewCacheWithInfo(cfg)
	if err != nil {
		return nil, err
	}
	return &Manager{
		Backend:     res.Cache,
		BackendType: res.BackendType,
		IsFallback:  res.IsFallback,
		Geo:         NewGeoCache(res.Cache, source, geoTTL),
		redis:       res.Redis,
	}, nil
}

// Redis returns the Redis cache when that backend is active.
func (m *Manager) Redis() *RedisCache {
	return m.redis
}

// Ping checks the backend. Memory backends are always reachable.
func (m *Manager) Ping(ctx context.Context) error {
	if p, ok := m.Backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Stats returns backend statistics when the backend tracks them.
func (m *Manager) Stats() Stats {
	if sp, ok := m.Backend.(StatsProvider); ok {
		return sp.Stats()
	}
	return Stats{}
}

// ClearAll removes every cached entry and resets statistics.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.Backend.Clear(ctx); err != nil {
		return err
	}
	if sp, ok := m.Backend.(StatsProvider); ok {
		sp.ResetStats()
	}
	slog.Info("cache cleared", "backend", m.BackendType)
	return nil
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.Backend.Close()
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/geoadmin/internal/cache"
	"github.com/olegiv/geoadmin/internal/version"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	cache     *cache.Manager
	startTime time.Time
}

// NewHealthHandler creates a new health handler. cm may be nil.
func NewHealthHandler(db *sql.DB, cm *cache.Manager) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cm,
		startTime: time.Now(),
	}
}

// HealthStatus represents the overall health status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

// Check represents a single health check result.
type Check struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency,omitempty"`
	Backend  string `json:"backend,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Health handles GET /healthz. An unreachable database is unhealthy (503);
// an unreachable cache only degrades the service since reads fall through
// to the database.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   version.Version,
		Checks:    make(map[string]Check, 2),
	}

	dbCheck := h.checkDatabase(r.Context())
	status.Checks["database"] = dbCheck
	if dbCheck.Status != "healthy" {
		status.Status = "unhealthy"
	}

	if h.cache != nil {
		cacheCheck := h.checkCache(r.Context())
		status.Checks["cache"] = cacheCheck
		if cacheCheck.Status != "healthy" && status.Status == "healthy" {
			status.Status = "degraded"
		}
	}

	code := http.StatusOK
	if status.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("health check: database unreachable", "error", err)
		return Check{Status: "unhealthy", Message: "database unreachable"}
	}
	return Check{Status: "healthy", Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkCache(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	c := Check{Backend: h.cache.BackendType, Fallback: h.cache.IsFallback}
	if err := h.cache.Ping(ctx); err != nil {
		slog.Warn("health check: cache unreachable", "error", err, "category", "cache")
		c.Status = "degraded"
		c.Message = "cache unreachable"
		return c
	}
	c.Status = "healthy"
	c.Latency = time.Since(start).String()
	return c
}

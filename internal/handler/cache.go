// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"

	"github.com/olegiv/geoadmin/internal/cache"
	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/service"
)

// CacheHandler handles cache management routes.
type CacheHandler struct {
	cacheManager *cache.Manager
	events       *service.EventService
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(cm *cache.Manager, es *service.EventService) *CacheHandler {
	return &CacheHandler{cacheManager: cm, events: es}
}

// Stats handles GET /cache.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"backend":  h.cacheManager.BackendType,
		"fallback": h.cacheManager.IsFallback,
		"stats":    h.cacheManager.Stats(),
		"geo_ttl":  h.cacheManager.Geo.TTL().String(),
	}
	if err := h.cacheManager.Ping(r.Context()); err != nil {
		data["health_error"] = err.Error()
	}
	writeJSONSuccess(w, http.StatusOK, data)
}

// Clear handles POST /cache/clear.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.cacheManager.ClearAll(r.Context()); err != nil {
		writeError(w, r, model.Unavailable("handler.ClearCache", err))
		return
	}
	recordEvent(r, h.events, model.EventCategoryCache, "All caches cleared", nil)
	writeJSONSuccess(w, http.StatusOK, nil)
}

// Warm handles POST /cache/warm: reloads countries and every state list.
func (h *CacheHandler) Warm(w http.ResponseWriter, r *http.Request) {
	n, err := h.cacheManager.Geo.Warm(r.Context())
	if err != nil {
		writeError(w, r, model.Unavailable("handler.WarmCache", err))
		return
	}
	slog.Info("geo cache warmed", "entries", n, "category", model.EventCategoryCache)
	recordEvent(r, h.events, model.EventCategoryCache, "Reference data cache warmed", map[string]any{"entries": n})
	writeJSONSuccess(w, http.StatusOK, map[string]any{"entries": n})
}

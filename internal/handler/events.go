// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/service"
)

// EventsPerPage is the number of events returned per page.
const EventsPerPage = 25

// EventsHandler handles event log viewing routes.
type EventsHandler struct {
	events *service.EventService
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService) *EventsHandler {
	return &EventsHandler{events: events}
}

type eventResponse struct {
	ID        int64          `json:"id"`
	Level     string         `json:"level"`
	Category  string         `json:"category"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// List handles GET /events?page=.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	events, err := h.events.Recent(r.Context(), EventsPerPage, (page-1)*EventsPerPage)
	if err != nil {
		writeError(w, r, model.Unavailable("handler.ListEvents", err))
		return
	}

	items := make([]eventResponse, 0, len(events))
	for _, e := range events {
		item := eventResponse{
			ID:        e.ID,
			Level:     e.Level,
			Category:  e.Category,
			Message:   e.Message,
			CreatedAt: e.CreatedAt,
		}
		if e.Metadata != "" && e.Metadata != "{}" {
			// Metadata is stored as JSON; anything else is shown raw.
			if err := json.Unmarshal([]byte(e.Metadata), &item.Metadata); err != nil {
				item.Metadata = map[string]any{"raw": e.Metadata}
			}
		}
		items = append(items, item)
	}

	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"events":   items,
		"page":     page,
		"per_page": EventsPerPage,
	})
}

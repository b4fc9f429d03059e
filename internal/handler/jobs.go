// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/scheduler"
	"github.com/olegiv/geoadmin/internal/service"
)

// JobsHandler exposes the background job scheduler to administrators.
type JobsHandler struct {
	scheduler *scheduler.Scheduler
	events    *service.EventService
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(s *scheduler.Scheduler, es *service.EventService) *JobsHandler {
	return &JobsHandler{scheduler: s, events: es}
}

// List handles GET /jobs.
func (h *JobsHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeJSONSuccess(w, http.StatusOK, map[string]any{"jobs": h.scheduler.List()})
}

// Run handles POST /jobs/{name}/run.
func (h *JobsHandler) Run(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := h.scheduler.TriggerNow(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		writeJSONError(w, http.StatusNotFound, "Job not found.")
		return
	case err != nil:
		writeError(w, r, model.Unavailable("handler.RunJob", err))
		return
	}
	recordEvent(r, h.events, model.EventCategorySystem, "Job triggered manually", map[string]any{"job": name})
	writeJSONSuccess(w, http.StatusOK, map[string]any{"job": name})
}

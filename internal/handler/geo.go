// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/geoadmin/internal/middleware"
	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/service"
)

// GeoHandler serves countries and states.
type GeoHandler struct {
	geo    *service.GeoService
	events *service.EventService
}

// NewGeoHandler creates a new GeoHandler. events may be nil.
func NewGeoHandler(geo *service.GeoService, events *service.EventService) *GeoHandler {
	return &GeoHandler{geo: geo, events: events}
}

// urlID parses the {id} route parameter. Malformed ids are reported as not
// found.
func urlID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeNotFound(w http.ResponseWriter, what string) {
	writeJSONError(w, http.StatusNotFound, what+" not found.")
}

// ListCountries handles GET /geo/countries and GET /countries.
func (h *GeoHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.geo.Countries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"countries": countries})
}

// StatesByCountry handles GET /geo/states?country_id=.
func (h *GeoHandler) StatesByCountry(w http.ResponseWriter, r *http.Request) {
	countryID, err := strconv.ParseInt(r.URL.Query().Get("country_id"), 10, 64)
	if err != nil || countryID <= 0 {
		writeValidationErrors(w, map[string]string{"country_id": "Country must be selected."})
		return
	}
	states, err := h.geo.States(r.Context(), countryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"states": states})
}

// ListStates handles GET /states.
func (h *GeoHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.geo.AllStates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"states": states})
}

// CreateCountry handles POST /countries.
func (h *GeoHandler) CreateCountry(w http.ResponseWriter, r *http.Request) {
	form := parseCountryForm(r)
	if errs := validateForm(form); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	country, err := h.geo.CreateCountry(r.Context(), form.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.logGeo(r, "Country created", map[string]any{"country_id": country.ID, "name": country.Name})
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"country": country})
}

// GetCountry handles GET /countries/{id}.
func (h *GeoHandler) GetCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, "Country")
		return
	}
	country, err := h.geo.Country(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"country": country})
}

// UpdateCountry handles POST /countries/{id}.
func (h *GeoHandler) UpdateCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, "Country")
		return
	}
	form := parseCountryForm(r)
	if errs := validateForm(form); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	country, err := h.geo.UpdateCountry(r.Context(), id, form.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.logGeo(r, "Country updated", map[string]any{"country_id": id, "name": country.Name})
	writeJSONSuccess(w, http.StatusOK, map[string]any{"country": country})
}

// DeleteCountry handles POST /countries/{id}/delete.
func (h *GeoHandler) DeleteCountry(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, "Country")
		return
	}
	if err := h.geo.DeleteCountry(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.logGeo(r, "Country deleted", map[string]any{"country_id": id})
	writeJSONSuccess(w, http.StatusOK, nil)
}

// CreateState handles POST /states.
func (h *GeoHandler) CreateState(w http.ResponseWriter, r *http.Request) {
	form := parseStateForm(r)
	if errs := validateForm(form); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	state, err := h.geo.CreateState(r.Context(), form.CountryID, form.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.logGeo(r, "State created", map[string]any{"state_id": state.ID, "country_id": state.CountryID, "name": state.Name})
	writeJSONSuccess(w, http.StatusCreated, map[string]any{"state": state})
}

// GetState handles GET /states/{id}.
func (h *GeoHandler) GetState(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, "State")
		return
	}
	state, err := h.geo.State(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONSuccess(w, http.StatusOK, map[string]any{"state": state})
}

// UpdateState handles POST /states/{id}.
func (h *GeoHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, "State")
		return
	}
	form := parseStateForm(r)
	if errs := validateForm(form); errs != nil {
		writeValidationErrors(w, errs)
		return
	}
	state, err := h.geo.UpdateState(r.Context(), id, form.CountryID, form.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.logGeo(r, "State updated", map[string]any{"state_id": id, "country_id": state.CountryID, "name": state.Name})
	writeJSONSuccess(w, http.StatusOK, map[string]any{"state": state})
}

// DeleteState handles POST /states/{id}/delete.
func (h *GeoHandler) DeleteState(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeNotFound(w, "State")
		return
	}
	if err := h.geo.DeleteState(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.logGeo(r, "State deleted", map[string]any{"state_id": id})
	writeJSONSuccess(w, http.StatusOK, nil)
}

// logGeo records an audit event for a reference-data mutation.
func (h *GeoHandler) logGeo(r *http.Request, message string, metadata map[string]any) {
	recordEvent(r, h.events, model.EventCategoryGeo, message, metadata)
}

// recordEvent appends the acting admin to metadata and stores an info event.
func recordEvent(r *http.Request, events *service.EventService, category, message string, metadata map[string]any) {
	if events == nil {
		return
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	if p := middleware.GetPrincipal(r, model.KindAdmin); p != nil {
		metadata["admin"] = p.Username
	}
	if err := events.LogInfo(r.Context(), category, message, metadata); err != nil {
		slog.Error("recording event", "category", category, "error", err)
	}
}

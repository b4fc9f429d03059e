// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/geoadmin/internal/middleware"
	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/session"
)

// HomeHandler serves the public landing page.
type HomeHandler struct {
	authority *session.Authority
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(authority *session.Authority) *HomeHandler {
	return &HomeHandler{authority: authority}
}

// Home handles GET /: the signed-in account, if any, and the CSRF token the
// page's forms must submit.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSONSuccess(w, http.StatusOK, map[string]any{
		"account":    middleware.GetPrincipal(r, model.KindAccount),
		"csrf_token": h.authority.CSRFToken(r.Context()),
	})
}

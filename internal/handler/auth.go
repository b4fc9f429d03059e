// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/geoadmin/internal/middleware"
	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/service"
	"github.com/olegiv/geoadmin/internal/session"
)

// AuthHandler handles login and logout for both principal kinds.
type AuthHandler struct {
	authority  *session.Authority
	protection *middleware.LoginProtection
	events     *service.EventService
}

// NewAuthHandler creates a new AuthHandler. protection and events may be nil.
func NewAuthHandler(authority *session.Authority, protection *middleware.LoginProtection, events *service.EventService) *AuthHandler {
	return &AuthHandler{
		authority:  authority,
		protection: protection,
		events:     events,
	}
}

// Token handles GET /login: returns the session's CSRF token and the current
// principal of kind, if any.
func (h *AuthHandler) Token(kind model.PrincipalKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"csrf_token": h.authority.CSRFToken(r.Context()),
		}
		if p := middleware.GetPrincipal(r, kind); p != nil {
			data["principal"] = p
		}
		writeJSONSuccess(w, http.StatusOK, data)
	}
}

// Login handles POST /login for kind.
func (h *AuthHandler) Login(kind model.PrincipalKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := parseLoginForm(r)
		if errs := validateForm(form); errs != nil {
			writeValidationErrors(w, errs)
			return
		}

		ip := middleware.GetClientIP(r)
		key := middleware.LockoutKey(kind, form.Username)

		if h.protection != nil {
			if locked, remaining := h.protection.IsLocked(key); locked {
				slog.Warn("login attempt on locked principal",
					"kind", kind, "username", form.Username, "ip", ip,
					"category", model.EventCategoryAuth)
				writeLockedOut(w, remaining)
				return
			}
		}

		p, err := h.authority.Authenticate(r.Context(), kind, model.Credentials{
			Username: form.Username,
			Password: form.Password,
		})
		if err != nil {
			if !errors.Is(err, model.ErrInvalidCredentials) {
				writeError(w, r, err)
				return
			}
			h.logAuth(r.Context(), model.EventLevelWarning, "Failed login attempt", kind, form.Username, ip)
			if h.protection != nil {
				if locked, lockout := h.protection.RecordFailedAttempt(key); locked {
					writeLockedOut(w, lockout)
					return
				}
			}
			writeError(w, r, err)
			return
		}

		if h.protection != nil {
			h.protection.RecordSuccessfulLogin(key)
		}
		if err := h.authority.Bind(r.Context(), p); err != nil {
			writeError(w, r, model.Unavailable("handler.Login", err))
			return
		}
		h.logAuth(r.Context(), model.EventLevelInfo, "User logged in", kind, p.Username, ip)

		writeJSONSuccess(w, http.StatusOK, map[string]any{
			"principal":  p,
			"csrf_token": h.authority.CSRFToken(r.Context()),
		})
	}
}

// Logout handles POST /logout for kind. Logging out without a binding
// succeeds.
func (h *AuthHandler) Logout(kind model.PrincipalKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := middleware.GetPrincipal(r, kind)
		if err := h.authority.Unbind(r.Context(), kind); err != nil {
			writeError(w, r, model.Unavailable("handler.Logout", err))
			return
		}
		if p != nil {
			h.logAuth(r.Context(), model.EventLevelInfo, "User logged out", kind, p.Username, middleware.GetClientIP(r))
		}
		writeJSONSuccess(w, http.StatusOK, nil)
	}
}

func (h *AuthHandler) logAuth(ctx context.Context, level, message string, kind model.PrincipalKind, username, ip string) {
	if h.events == nil {
		return
	}
	err := h.events.LogAuthEvent(ctx, level, message, map[string]any{
		"kind":     string(kind),
		"username": username,
		"ip":       ip,
	})
	if err != nil {
		slog.Error("recording auth event", "error", err)
	}
}

func writeLockedOut(w http.ResponseWriter, remaining time.Duration) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())+1))
	writeJSONError(w, http.StatusTooManyRequests,
		fmt.Sprintf("Too many failed login attempts. Try again in %s.", remaining.Round(time.Second)))
}

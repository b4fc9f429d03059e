// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for principal extraction,
// CSRF verification, login throttling and response hardening.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for principals, one per kind.
const (
	ContextKeyAccount ContextKey = "account"
	ContextKeyAdmin   ContextKey = "admin"
)

func contextKeyFor(kind model.PrincipalKind) ContextKey {
	if kind == model.KindAdmin {
		return ContextKeyAdmin
	}
	return ContextKeyAccount
}

// LoadPrincipal resolves the optional principal of kind from the session and
// stores it in the request context. Requests without one pass through.
func LoadPrincipal(authority *session.Authority, kind model.PrincipalKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authority.Current(r.Context(), kind, false)
			if err != nil || p == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyFor(kind), *p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal rejects requests whose session has no principal of kind.
// unauthenticated renders the rejection; nil means a JSON 401.
func RequirePrincipal(authority *session.Authority, kind model.PrincipalKind, unauthenticated http.Handler) func(http.Handler) http.Handler {
	if unauthenticated == nil {
		unauthenticated = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			WriteJSONError(w, http.StatusUnauthorized, model.ErrAuthRequired.Error())
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := authority.Current(r.Context(), kind, true)
			if err != nil {
				if !errors.Is(err, model.ErrAuthRequired) {
					slog.Error("resolving principal", "kind", kind, "error", err)
				}
				unauthenticated.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyFor(kind), *p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal returns the principal of kind placed in the context by
// LoadPrincipal or RequirePrincipal, or nil.
func GetPrincipal(r *http.Request, kind model.PrincipalKind) *model.Principal {
	p, ok := r.Context().Value(contextKeyFor(kind)).(model.Principal)
	if !ok {
		return nil
	}
	return &p
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain types shared across the application:
// principals bound into sessions, listing requests, event log constants
// and the error taxonomy surfaced to the presentation layer.
package model

import "fmt"

// PrincipalKind identifies one of the two independent login namespaces.
type PrincipalKind string

// Principal kinds.
const (
	KindAccount PrincipalKind = "account"
	KindAdmin   PrincipalKind = "admin"
)

// Valid reports whether k is a known principal kind.
func (k PrincipalKind) Valid() bool {
	return k == KindAccount || k == KindAdmin
}

// Principal is an authenticated identity of a specific kind bound into a session.
type Principal struct {
	Kind     PrincipalKind `json:"kind"`
	ID       int64         `json:"id"`
	Username string        `json:"username"`
}

func (p Principal) String() string {
	return fmt.Sprintf("%s:%d(%s)", p.Kind, p.ID, p.Username)
}

// Credentials are the username/password pair submitted on login.
type Credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required,min=6"`
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// Error kinds. Compare with errors.Is; a *DomainError matches its kind.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrValidationFailed   = errors.New("validation failed")
	ErrUnavailable        = errors.New("unavailable")
	ErrAuthRequired       = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// DomainError carries a kind, the failing operation and a user-facing message.
type DomainError struct {
	Kind    error
	Op      string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Is matches the error kind so callers can write errors.Is(err, model.ErrConflict).
func (e *DomainError) Is(target error) bool {
	return target == e.Kind
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NotFound returns a NotFound error for op.
func NotFound(op, message string) error {
	return &DomainError{Kind: ErrNotFound, Op: op, Message: message}
}

// Conflict returns a Conflict error for op.
func Conflict(op, message string, cause error) error {
	return &DomainError{Kind: ErrConflict, Op: op, Message: message, Err: cause}
}

// Invalid returns a ValidationFailed error for op.
func Invalid(op, message string) error {
	return &DomainError{Kind: ErrValidationFailed, Op: op, Message: message}
}

// Unavailable wraps a transport or store failure.
func Unavailable(op string, cause error) error {
	return &DomainError{Kind: ErrUnavailable, Op: op, Err: cause}
}

// UserMessage returns the message suitable for display, falling back to the kind.
func UserMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		if de.Message != "" {
			return de.Message
		}
		return de.Kind.Error()
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return ErrInvalidCredentials.Error()
	case errors.Is(err, ErrAuthRequired):
		return ErrAuthRequired.Error()
	}
	return "internal error"
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/geoadmin/internal/auth"
)

// ErrAdminExists is returned by CreateAdminUser when the username or email is taken.
var ErrAdminExists = errors.New("admin with this username or email already exists")

// CreateAdminUser hashes password and inserts a new administrator.
func CreateAdminUser(ctx context.Context, db *sql.DB, username, email, password string) (Admin, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return Admin{}, errors.New("username and email are required")
	}
	if len(password) < 6 {
		return Admin{}, errors.New("password must be at least 6 characters")
	}

	queries := New(db)

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return Admin{}, fmt.Errorf("hashing password: %w", err)
	}

	id, err := queries.CreateAdmin(ctx, CreateAdminParams{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return Admin{}, ErrAdminExists
		}
		return Admin{}, fmt.Errorf("creating admin: %w", err)
	}

	admin, err := queries.GetAdmin(ctx, id)
	if err != nil {
		return Admin{}, fmt.Errorf("loading admin: %w", err)
	}

	slog.Info("created admin user", "id", admin.ID, "username", admin.Username)
	return admin, nil
}

// SchemaReport summarises database state for the check-db command.
type SchemaReport struct {
	Version    int64
	AdminCount int64
	Admins     []Admin
	Countries  int64
}

// CheckSchema reports the schema version and the administrators present.
func CheckSchema(ctx context.Context, db *sql.DB, dialect Dialect) (SchemaReport, error) {
	var report SchemaReport

	v, err := MigrationVersion(db, dialect)
	if err != nil {
		return report, err
	}
	report.Version = v

	queries := New(db)
	if report.AdminCount, err = queries.CountAdmins(ctx); err != nil {
		return report, fmt.Errorf("counting admins: %w", err)
	}
	if report.Admins, err = queries.ListAdmins(ctx); err != nil {
		return report, fmt.Errorf("listing admins: %w", err)
	}
	if report.Countries, err = queries.CountCountries(ctx); err != nil {
		return report, fmt.Errorf("counting countries: %w", err)
	}
	return report, nil
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for geoadmin.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/geoadmin/internal/auth"
	"github.com/olegiv/geoadmin/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a temporary test database with all migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "geoadmin-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// SeedCountry inserts a country and returns its ID.
func SeedCountry(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	now := time.Now().UTC()
	id, err := store.New(db).CreateCountry(context.Background(), store.CreateCountryParams{
		Name: name, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seeding country %q: %v", name, err)
	}
	return id
}

// SeedState inserts a state under countryID and returns its ID.
func SeedState(t *testing.T, db *sql.DB, countryID int64, name string) int64 {
	t.Helper()
	now := time.Now().UTC()
	id, err := store.New(db).CreateState(context.Background(), store.CreateStateParams{
		CountryID: countryID, Name: name, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("seeding state %q: %v", name, err)
	}
	return id
}

// SeedAccount inserts an account with the given password. countryID and
// stateID may be zero.
func SeedAccount(t *testing.T, db *sql.DB, username, password string, countryID, stateID int64) int64 {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	now := time.Now().UTC()
	id, err := store.New(db).CreateAccount(context.Background(), store.CreateAccountParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		CountryID:    sql.NullInt64{Int64: countryID, Valid: countryID > 0},
		StateID:      sql.NullInt64{Int64: stateID, Valid: stateID > 0},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("seeding account %q: %v", username, err)
	}
	return id
}

// SeedAdmin inserts an admin with the given password and returns its ID.
func SeedAdmin(t *testing.T, db *sql.DB, username, password string) int64 {
	t.Helper()
	admin, err := store.CreateAdminUser(context.Background(), db, username, username+"@example.com", password)
	if err != nil {
		t.Fatalf("seeding admin %q: %v", username, err)
	}
	return admin.ID
}

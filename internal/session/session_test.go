// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// One connection so every query sees the same in-memory database.
	db.SetMaxOpenConns(1)

	// Create sessions table required by sqlite3store
	_, err = db.Exec(`
		CREATE TABLE sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expiry REAL NOT NULL
		);
		CREATE INDEX sessions_expiry_idx ON sessions(expiry);
	`)
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_Defaults(t *testing.T) {
	sm, err := New(Options{})
	require.NoError(t, err)

	assert.Equal(t, DefaultIdleTimeout, sm.IdleTimeout)
	assert.GreaterOrEqual(t, sm.Lifetime, sm.IdleTimeout)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, sm.Cookie.SameSite)
	assert.False(t, sm.Cookie.Secure)
	assert.NotEqual(t, "__Host-session", sm.Cookie.Name)
	assert.NotNil(t, sm.Store)
}

func TestNew_IdleTimeout(t *testing.T) {
	sm, err := New(Options{IdleTimeout: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, sm.IdleTimeout)

	sm, err = New(Options{IdleTimeout: -5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, DefaultIdleTimeout, sm.IdleTimeout)
}

func TestNew_Secure(t *testing.T) {
	sm, err := New(Options{Secure: true})
	require.NoError(t, err)

	assert.True(t, sm.Cookie.Secure)
	assert.Equal(t, "__Host-session", sm.Cookie.Name)
	assert.Equal(t, "/", sm.Cookie.Path)
}

func TestNew_StoreSelection(t *testing.T) {
	_, err := New(Options{Store: StoreSQLite})
	assert.Error(t, err, "sqlite store without a database")

	_, err = New(Options{Store: StoreRedis})
	assert.Error(t, err, "redis store without a client")

	_, err = New(Options{Store: "etcd"})
	assert.Error(t, err)

	sm, err := New(Options{Store: StoreSQLite, DB: setupTestDB(t)})
	require.NoError(t, err)
	assert.NotNil(t, sm.Store)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	sm, err := New(Options{Store: StoreSQLite, DB: setupTestDB(t)})
	require.NoError(t, err)

	ctx, err := sm.Load(context.Background(), "")
	require.NoError(t, err)
	sm.Put(ctx, "greeting", "selamat")
	token, _, err := sm.Commit(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ctx2, err := sm.Load(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "selamat", sm.GetString(ctx2, "greeting"))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("GEOADMIN_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: GEOADMIN_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client, "geoadmin-test:session:")
	ctx := context.Background()

	require.NoError(t, s.CommitCtx(ctx, "tok", []byte("data"), time.Now().Add(time.Minute)))
	b, found, err := s.FindCtx(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("data"), b)

	require.NoError(t, s.Delete("tok"))
	_, found, err = s.Find("tok")
	require.NoError(t, err)
	assert.False(t, found)

	// An expiry in the past removes the entry.
	require.NoError(t, s.Commit("old", []byte("x"), time.Now().Add(-time.Second)))
	_, found, err = s.FindCtx(ctx, "old")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNew_NoAbsoluteLifetime(t *testing.T) {
	sm, err := New(Options{IdleTimeout: time.Hour})
	require.NoError(t, err)

	// An active session is only ever ended by inactivity.
	assert.Equal(t, unboundedLifetime, sm.Lifetime)
	assert.Greater(t, sm.Lifetime, 50*365*24*time.Hour)
}

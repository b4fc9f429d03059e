// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/geoadmin/internal/cache"
	"github.com/olegiv/geoadmin/internal/middleware"
	"github.com/olegiv/geoadmin/internal/scheduler"
	"github.com/olegiv/geoadmin/internal/service"
	"github.com/olegiv/geoadmin/internal/session"
	"github.com/olegiv/geoadmin/internal/store"
	"github.com/olegiv/geoadmin/internal/testutil"
)

const (
	testAdminName     = "root"
	testAdminPassword = "admin-secret"
)

// testEnv is a running router over a migrated temp database with a memory
// cache and memstore sessions.
type testEnv struct {
	db         *sql.DB
	server     *httptest.Server
	cookieName string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	queries := store.New(db)
	cm, err := cache.NewManager(cache.DefaultCacheConfig(), queries, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cm.Close() })

	sm, err := session.New(session.Options{Store: session.StoreMemory})
	require.NoError(t, err)

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       1000,
		IPBurst:           1000,
		MaxFailedAttempts: 3,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	t.Cleanup(lp.Close)

	events := service.NewEventService(db)
	sched := scheduler.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, sched.RegisterDefaults(scheduler.Config{
		WarmSchedule:   "@hourly",
		EventRetention: 24 * time.Hour,
	}, cm.Geo, events))

	router := NewRouter(Deps{
		DB:              db,
		Geo:             service.NewGeoService(queries, cm.Geo),
		Accounts:        service.NewAccountService(db, store.ListLimits{Default: 5, Max: 20}),
		Events:          events,
		Authority:       session.NewAuthority(sm, queries),
		Cache:           cm,
		Scheduler:       sched,
		LoginProtection: lp,
		IsDevelopment:   true,
		CSRFKey:         []byte("0123456789abcdef0123456789abcdef"),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	testutil.SeedAdmin(t, db, testAdminName, testAdminPassword)

	return &testEnv{
		db:         db,
		server:     srv,
		cookieName: sm.Cookie.Name,
	}
}

// client is a browser-like user agent with its own cookie jar and the CSRF
// token of its session.
type client struct {
	t     *testing.T
	env   *testEnv
	http  *http.Client
	token string
}

func (e *testEnv) newClient(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, env: e, http: &http.Client{Jar: jar}}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), "body: %s", r.body)
	return out
}

func (c *client) do(req *http.Request) response {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: body}
}

func (c *client) get(path string) response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodGet, c.env.server.URL+path, nil)
	require.NoError(c.t, err)
	return c.do(req)
}

// post submits form with the client's CSRF token.
func (c *client) post(path string, form url.Values) response {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if c.token != "" && form.Get(middleware.CSRFFormField) == "" {
		form.Set(middleware.CSRFFormField, c.token)
	}
	return c.postRaw(path, form)
}

func (c *client) postRaw(path string, form url.Values) response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodPost, c.env.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// fetchToken loads path and remembers the returned CSRF token.
func (c *client) fetchToken(path string) string {
	c.t.Helper()
	resp := c.get(path)
	require.Equal(c.t, http.StatusOK, resp.status)
	token, _ := resp.json(c.t)["csrf_token"].(string)
	require.NotEmpty(c.t, token)
	c.token = token
	return token
}

func (c *client) sessionID() string {
	c.t.Helper()
	u, err := url.Parse(c.env.server.URL)
	require.NoError(c.t, err)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == c.env.cookieName {
			return ck.Value
		}
	}
	return ""
}

// loginAdmin signs the client in as the seeded admin.
func (c *client) loginAdmin() {
	c.t.Helper()
	c.fetchToken("/admin/login")
	resp := c.post("/admin/login", url.Values{
		"username": {testAdminName},
		"password": {testAdminPassword},
	})
	require.Equal(c.t, http.StatusOK, resp.status, "body: %s", resp.body)
}

func idOf(t *testing.T, body map[string]any, key string) int64 {
	t.Helper()
	obj, ok := body[key].(map[string]any)
	require.True(t, ok, "missing %q in %v", key, body)
	id, ok := obj["id"].(float64)
	require.True(t, ok)
	return int64(id)
}

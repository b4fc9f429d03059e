// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/geoadmin/internal/testutil"
)

func TestHome_IssuesStableCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	first := c.fetchToken("/")
	second := c.fetchToken("/")
	assert.Equal(t, first, second)

	body := c.get("/").json(t)
	assert.Nil(t, body["account"])
}

func TestMutationWithoutCSRFTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	c.fetchToken("/")

	resp := c.postRaw("/login", url.Values{"username": {"alice"}, "password": {"secret1"}})
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = c.postRaw("/login", url.Values{
		"username":   {"alice"},
		"password":   {"secret1"},
		"csrf_token": {"forged"},
	})
	assert.Equal(t, http.StatusForbidden, resp.status)
}

func TestCSRFTokenFromOtherSessionIsRejected(t *testing.T) {
	env := newTestEnv(t)
	victim := env.newClient(t)
	attacker := env.newClient(t)

	victim.fetchToken("/")
	attackerToken := attacker.fetchToken("/")

	resp := victim.post("/logout", url.Values{"csrf_token": {attackerToken}})
	assert.Equal(t, http.StatusForbidden, resp.status)
}

func TestCSRFTokenInHeader(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	token := c.fetchToken("/")

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/logout", nil)
	require.NoError(t, err)
	req.Header.Set("X-CSRF-Token", token)
	resp := c.do(req)
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestCrossSiteRequestIsRejected(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	token := c.fetchToken("/")

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/logout", nil)
	require.NoError(t, err)
	req.Header.Set("X-CSRF-Token", token)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	resp := c.do(req)
	assert.Equal(t, http.StatusForbidden, resp.status)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	resp := c.get("/admin/countries")
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = c.get("/admin/api/v1/accounts/datatable")
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestAdminLogin_RotatesSessionKeepsCSRFToken(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)

	token := c.fetchToken("/admin/login")
	before := c.sessionID()
	require.NotEmpty(t, before)

	resp := c.post("/admin/login", url.Values{
		"username": {testAdminName},
		"password": {testAdminPassword},
	})
	require.Equal(t, http.StatusOK, resp.status, "body: %s", resp.body)

	body := resp.json(t)
	principal := body["principal"].(map[string]any)
	assert.Equal(t, "admin", principal["kind"])
	assert.Equal(t, testAdminName, principal["username"])
	assert.Equal(t, token, body["csrf_token"])

	after := c.sessionID()
	assert.NotEmpty(t, after)
	assert.NotEqual(t, before, after)

	assert.Equal(t, http.StatusOK, c.get("/admin/countries").status)
}

func TestAdminLogin_OldSessionIDIsDead(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	c.fetchToken("/admin/login")
	before := c.sessionID()
	c.loginAdmin()

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/admin/countries", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: env.cookieName, Value: before})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminLogin_InvalidCredentialsAndLockout(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	c.fetchToken("/admin/login")

	bad := url.Values{"username": {testAdminName}, "password": {"wrong-password"}}
	for i := 0; i < 2; i++ {
		resp := c.post("/admin/login", bad)
		require.Equal(t, http.StatusUnauthorized, resp.status)
		assert.Equal(t, "invalid username or password", resp.json(t)["error"])
	}

	resp := c.post("/admin/login", bad)
	assert.Equal(t, http.StatusTooManyRequests, resp.status)

	// Locked even with the right password.
	resp = c.post("/admin/login", url.Values{"username": {testAdminName}, "password": {testAdminPassword}})
	assert.Equal(t, http.StatusTooManyRequests, resp.status)
	assert.NotEmpty(t, resp.header.Get("Retry-After"))
}

func TestAdminLogin_UnknownUserMatchesWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	c.fetchToken("/admin/login")

	unknown := c.post("/admin/login", url.Values{"username": {"nobody"}, "password": {"whatever1"}})
	wrong := c.post("/admin/login", url.Values{"username": {testAdminName}, "password": {"whatever1"}})

	assert.Equal(t, http.StatusUnauthorized, unknown.status)
	assert.Equal(t, unknown.status, wrong.status)
	assert.Equal(t, unknown.json(t)["error"], wrong.json(t)["error"])
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	c.fetchToken("/")

	resp := c.post("/login", url.Values{"username": {""}, "password": {"123"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.status)
	errs := resp.json(t)["errors"].(map[string]any)
	assert.Equal(t, "Username is required.", errs["username"])
	assert.Equal(t, "Password must be at least 6 characters.", errs["password"])
}

func TestAccountLogin_DoesNotGrantAdmin(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedAccount(t, env.db, "alice", "alice-secret", 0, 0)
	c := env.newClient(t)
	c.fetchToken("/")
	before := c.sessionID()

	resp := c.post("/login", url.Values{"username": {"alice"}, "password": {"alice-secret"}})
	require.Equal(t, http.StatusOK, resp.status, "body: %s", resp.body)
	assert.Equal(t, before, c.sessionID())

	home := c.get("/").json(t)
	account := home["account"].(map[string]any)
	assert.Equal(t, "account", account["kind"])
	assert.Equal(t, "alice", account["username"])

	assert.Equal(t, http.StatusUnauthorized, c.get("/admin/countries").status)

	// An admin name is not an account.
	resp = c.post("/login", url.Values{"username": {testAdminName}, "password": {testAdminPassword}})
	assert.Equal(t, http.StatusUnauthorized, resp.status)
}

func TestLogout_UnbindsOnlyThatKind(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedAccount(t, env.db, "alice", "alice-secret", 0, 0)
	c := env.newClient(t)
	c.loginAdmin()

	resp := c.post("/login", url.Values{"username": {"alice"}, "password": {"alice-secret"}})
	require.Equal(t, http.StatusOK, resp.status)

	require.Equal(t, http.StatusOK, c.post("/logout", nil).status)
	assert.Nil(t, c.get("/").json(t)["account"])
	assert.Equal(t, http.StatusOK, c.get("/admin/countries").status)

	require.Equal(t, http.StatusOK, c.post("/admin/logout", nil).status)
	assert.Equal(t, http.StatusUnauthorized, c.get("/admin/countries").status)
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/geoadmin/internal/testutil"
)

func accountValues(username string, countryID, stateID int64) url.Values {
	return url.Values{
		"username":   {username},
		"email":      {username + "@example.com"},
		"password":   {"s3cret-pass"},
		"address":    {"1 Main St"},
		"country_id": {fmt.Sprint(countryID)},
		"state_id":   {fmt.Sprint(stateID)},
	}
}

func TestAdminAccountCRUD(t *testing.T) {
	env := newTestEnv(t)
	de := testutil.SeedCountry(t, env.db, "Germany")
	by := testutil.SeedState(t, env.db, de, "Bavaria")
	he := testutil.SeedState(t, env.db, de, "Hesse")

	c := env.newClient(t)
	c.loginAdmin()

	resp := c.post("/admin/accounts", accountValues("alice", de, by))
	require.Equal(t, http.StatusCreated, resp.status, "body: %s", resp.body)
	body := resp.json(t)
	id := idOf(t, body, "account")
	account := body["account"].(map[string]any)
	assert.Equal(t, "Germany", account["country_name"])
	assert.Equal(t, "Bavaria", account["state_name"])
	assert.NotContains(t, string(resp.body), "password")

	resp = c.post("/admin/accounts", accountValues("alice", de, by))
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "Username or email already exists", resp.json(t)["error"])

	form := accountValues("alice", de, he)
	form.Set("password", "")
	resp = c.post(fmt.Sprintf("/admin/accounts/%d", id), form)
	require.Equal(t, http.StatusOK, resp.status, "body: %s", resp.body)
	assert.Equal(t, "Hesse", resp.json(t)["account"].(map[string]any)["state_name"])

	// The unchanged password still works.
	user := env.newClient(t)
	user.fetchToken("/")
	resp = user.post("/login", url.Values{"username": {"alice"}, "password": {"s3cret-pass"}})
	assert.Equal(t, http.StatusOK, resp.status)

	resp = c.get(fmt.Sprintf("/admin/accounts/%d", id))
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "1 Main St", resp.json(t)["account"].(map[string]any)["address"])

	resp = c.post(fmt.Sprintf("/admin/accounts/%d/delete", id), nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, http.StatusNotFound, c.get(fmt.Sprintf("/admin/accounts/%d", id)).status)
}

func TestAdminAccountValidation(t *testing.T) {
	env := newTestEnv(t)
	de := testutil.SeedCountry(t, env.db, "Germany")
	at := testutil.SeedCountry(t, env.db, "Austria")
	tyrol := testutil.SeedState(t, env.db, at, "Tyrol")

	c := env.newClient(t)
	c.loginAdmin()

	form := accountValues("bob", de, tyrol)
	form.Set("email", "not-an-email")
	form.Set("password", "")
	resp := c.post("/admin/accounts", form)
	require.Equal(t, http.StatusUnprocessableEntity, resp.status)
	errs := resp.json(t)["errors"].(map[string]any)
	assert.Equal(t, "Email must be a valid email address.", errs["email"])
	assert.Equal(t, "Password is required.", errs["password"])

	resp = c.post("/admin/accounts", accountValues("bob", de, 0))
	require.Equal(t, http.StatusUnprocessableEntity, resp.status)
	assert.Equal(t, "State must be selected.", resp.json(t)["errors"].(map[string]any)["state_id"])

	resp = c.post("/admin/accounts", accountValues("bob", de, tyrol))
	require.Equal(t, http.StatusUnprocessableEntity, resp.status)
	assert.Equal(t, "Selected state does not belong to the selected country.", resp.json(t)["error"])
}

func TestAdminAccountList(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"carol", "alice", "bob"} {
		testutil.SeedAccount(t, env.db, name, "password1", 0, 0)
	}
	c := env.newClient(t)
	c.loginAdmin()

	resp := c.get("/admin/accounts?order=username&dir=asc&limit=2")
	require.Equal(t, http.StatusOK, resp.status)
	body := resp.json(t)
	assert.EqualValues(t, 3, body["total_count"])
	assert.EqualValues(t, 3, body["filtered_count"])
	assert.EqualValues(t, 2, body["limit"])
	rows := body["accounts"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].(map[string]any)["username"])
	assert.Equal(t, "bob", rows[1].(map[string]any)["username"])

	// Out-of-range values fall back to the configured limits.
	body = c.get("/admin/accounts?limit=1000&offset=-5&order=password_hash&dir=sideways").json(t)
	assert.EqualValues(t, 20, body["limit"])
	assert.EqualValues(t, 0, body["offset"])
	assert.Equal(t, "id", body["order"])
	assert.Equal(t, "desc", body["dir"])
}

func TestDataTable(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"carol", "alice", "bob", "alicia"} {
		testutil.SeedAccount(t, env.db, name, "password1", 0, 0)
	}
	c := env.newClient(t)
	c.loginAdmin()

	q := url.Values{
		"draw":             {"7"},
		"start":            {"0"},
		"length":           {"10"},
		"search[value]":    {"ali"},
		"order[0][column]": {"1"},
		"order[0][dir]":    {"desc"},
	}
	resp := c.get("/admin/api/v1/accounts/datatable?" + q.Encode())
	require.Equal(t, http.StatusOK, resp.status, "body: %s", resp.body)
	body := resp.json(t)
	assert.EqualValues(t, 7, body["draw"])
	assert.EqualValues(t, 4, body["recordsTotal"])
	assert.EqualValues(t, 2, body["recordsFiltered"])

	data := body["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, "alicia", first["username"])
	assert.Equal(t, "alicia@example.com", first["email"])
	_, err := time.Parse(time.RFC3339, first["created_at"].(string))
	assert.NoError(t, err)
	assert.Equal(t, "alice", data[1].(map[string]any)["username"])
}

func TestDataTable_HostileParameters(t *testing.T) {
	env := newTestEnv(t)
	testutil.SeedAccount(t, env.db, "alice", "password1", 0, 0)
	testutil.SeedAccount(t, env.db, "bob", "password1", 0, 0)
	c := env.newClient(t)
	c.loginAdmin()

	q := url.Values{
		"draw":             {"x"},
		"start":            {"-3"},
		"length":           {"100000"},
		"search[value]":    {"%' OR 1=1 --"},
		"order[0][column]": {"1; DROP TABLE accounts"},
		"order[0][dir]":    {"asc; DELETE FROM accounts"},
	}
	resp := c.get("/admin/api/v1/accounts/datatable?" + q.Encode())
	require.Equal(t, http.StatusOK, resp.status, "body: %s", resp.body)
	body := resp.json(t)
	assert.EqualValues(t, 0, body["draw"])
	assert.EqualValues(t, 2, body["recordsTotal"])
	assert.EqualValues(t, 0, body["recordsFiltered"])
	assert.Empty(t, body["data"])

	// Wildcards in the search term match literally.
	q.Set("search[value]", "%")
	body = c.get("/admin/api/v1/accounts/datatable?" + q.Encode()).json(t)
	assert.EqualValues(t, 0, body["recordsFiltered"])

	var count int
	require.NoError(t, env.db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"carol", "alice", "bob", "=cmd"} {
		testutil.SeedAccount(t, env.db, name, "password1", 0, 0)
	}
	c := env.newClient(t)
	c.loginAdmin()

	resp := c.get("/admin/accounts/export.csv?order=username&dir=asc&limit=1")
	require.Equal(t, http.StatusOK, resp.status)
	assert.True(t, strings.HasPrefix(resp.header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.header.Get("Content-Disposition"), "accounts.csv")

	records, err := csv.NewReader(strings.NewReader(string(resp.body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5, "export ignores pagination")
	assert.Equal(t, []string{"id", "username", "email", "created_at"}, records[0])
	assert.Equal(t, "'=cmd", records[1][1])
	assert.Equal(t, "'=cmd@example.com", records[1][2])
	assert.Equal(t, "alice", records[2][1])
	assert.Equal(t, "carol", records[4][1])

	resp = c.get("/admin/accounts/export.csv?search=car")
	records, err = csv.NewReader(strings.NewReader(string(resp.body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "carol", records[1][1])
}

func TestCSVCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alice", "alice"},
		{"", ""},
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1", "'+1"},
		{"-1", "'-1"},
		{"@cmd", "'@cmd"},
		{"a=b", "a=b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, csvCell(tt.in), "csvCell(%q)", tt.in)
	}
}

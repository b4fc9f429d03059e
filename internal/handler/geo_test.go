// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/geoadmin/internal/testutil"
)

func names(t *testing.T, body map[string]any, key string) []string {
	t.Helper()
	items, ok := body[key].([]any)
	require.True(t, ok, "missing %q in %v", key, body)
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.(map[string]any)["name"].(string))
	}
	return out
}

func TestPublicGeoEndpoints(t *testing.T) {
	env := newTestEnv(t)
	de := testutil.SeedCountry(t, env.db, "Germany")
	testutil.SeedCountry(t, env.db, "Austria")
	testutil.SeedState(t, env.db, de, "Hesse")
	testutil.SeedState(t, env.db, de, "Bavaria")

	c := env.newClient(t)

	resp := c.get("/geo/countries")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []string{"Austria", "Germany"}, names(t, resp.json(t), "countries"))

	resp = c.get(fmt.Sprintf("/geo/states?country_id=%d", de))
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []string{"Bavaria", "Hesse"}, names(t, resp.json(t), "states"))

	resp = c.get("/geo/states?country_id=999")
	require.Equal(t, http.StatusOK, resp.status)
	assert.Empty(t, names(t, resp.json(t), "states"))

	resp = c.get("/geo/states")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status)
}

func TestAdminCountryCRUD(t *testing.T) {
	env := newTestEnv(t)
	c := env.newClient(t)
	c.loginAdmin()

	resp := c.post("/admin/countries", url.Values{"name": {"  <b>France</b> "}})
	require.Equal(t, http.StatusCreated, resp.status, "body: %s", resp.body)
	body := resp.json(t)
	id := idOf(t, body, "country")
	assert.Equal(t, "France", body["country"].(map[string]any)["name"])

	// Public list sees the new country immediately.
	assert.Equal(t, []string{"France"}, names(t, c.get("/geo/countries").json(t), "countries"))

	resp = c.post("/admin/countries", url.Values{"name": {"France"}})
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "A country with this name already exists.", resp.json(t)["error"])

	resp = c.post("/admin/countries", url.Values{"name": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status)

	resp = c.post(fmt.Sprintf("/admin/countries/%d", id), url.Values{"name": {"République française"}})
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, []string{"République française"}, names(t, c.get("/geo/countries").json(t), "countries"))

	resp = c.get(fmt.Sprintf("/admin/countries/%d", id))
	require.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "République française", resp.json(t)["country"].(map[string]any)["name"])

	assert.Equal(t, http.StatusNotFound, c.get("/admin/countries/9999").status)
	assert.Equal(t, http.StatusNotFound, c.get("/admin/countries/abc").status)

	resp = c.post(fmt.Sprintf("/admin/countries/%d/delete", id), nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Empty(t, names(t, c.get("/geo/countries").json(t), "countries"))

	resp = c.post(fmt.Sprintf("/admin/countries/%d/delete", id), nil)
	assert.Equal(t, http.StatusNotFound, resp.status)
}

func TestAdminDeleteGuards(t *testing.T) {
	env := newTestEnv(t)
	de := testutil.SeedCountry(t, env.db, "Germany")
	by := testutil.SeedState(t, env.db, de, "Bavaria")
	testutil.SeedAccount(t, env.db, "alice", "alice-secret", de, by)

	c := env.newClient(t)
	c.loginAdmin()

	resp := c.post(fmt.Sprintf("/admin/countries/%d/delete", de), nil)
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "Cannot delete country with existing states.", resp.json(t)["error"])

	resp = c.post(fmt.Sprintf("/admin/states/%d/delete", by), nil)
	assert.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "Cannot delete state assigned to users.", resp.json(t)["error"])

	// Nothing was removed.
	assert.Equal(t, []string{"Bavaria"}, names(t, c.get(fmt.Sprintf("/geo/states?country_id=%d", de)).json(t), "states"))
}

func TestAdminStateCRUD(t *testing.T) {
	env := newTestEnv(t)
	de := testutil.SeedCountry(t, env.db, "Germany")
	at := testutil.SeedCountry(t, env.db, "Austria")

	c := env.newClient(t)
	c.loginAdmin()

	// Prime the cache for both countries.
	c.get(fmt.Sprintf("/geo/states?country_id=%d", de))
	c.get(fmt.Sprintf("/geo/states?country_id=%d", at))

	resp := c.post("/admin/states", url.Values{"name": {"Tyrol"}, "country_id": {fmt.Sprint(de)}})
	require.Equal(t, http.StatusCreated, resp.status, "body: %s", resp.body)
	id := idOf(t, resp.json(t), "state")
	assert.Equal(t, []string{"Tyrol"}, names(t, c.get(fmt.Sprintf("/geo/states?country_id=%d", de)).json(t), "states"))

	resp = c.post(fmt.Sprintf("/admin/states/%d", id), url.Values{"name": {"Tyrol"}, "country_id": {fmt.Sprint(at)}})
	require.Equal(t, http.StatusOK, resp.status, "body: %s", resp.body)
	assert.Empty(t, names(t, c.get(fmt.Sprintf("/geo/states?country_id=%d", de)).json(t), "states"))
	assert.Equal(t, []string{"Tyrol"}, names(t, c.get(fmt.Sprintf("/geo/states?country_id=%d", at)).json(t), "states"))

	resp = c.get("/admin/states")
	require.Equal(t, http.StatusOK, resp.status)
	states := resp.json(t)["states"].([]any)
	require.Len(t, states, 1)
	assert.Equal(t, "Austria", states[0].(map[string]any)["country_name"])

	resp = c.post("/admin/states", url.Values{"name": {"Nowhere"}, "country_id": {"9999"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.status)

	resp = c.post("/admin/states", url.Values{"name": {"Nowhere"}})
	require.Equal(t, http.StatusUnprocessableEntity, resp.status)
	assert.Equal(t, "Country must be selected.", resp.json(t)["errors"].(map[string]any)["country_id"])

	resp = c.post(fmt.Sprintf("/admin/states/%d/delete", id), nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Empty(t, names(t, c.get(fmt.Sprintf("/geo/states?country_id=%d", at)).json(t), "states"))
}

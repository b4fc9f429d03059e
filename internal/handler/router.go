// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/geoadmin/internal/cache"
	"github.com/olegiv/geoadmin/internal/middleware"
	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/scheduler"
	"github.com/olegiv/geoadmin/internal/service"
	"github.com/olegiv/geoadmin/internal/session"
)

// Route paths.
const (
	RouteRoot       = "/"
	RouteHealth     = "/healthz"
	RouteLogin      = "/login"
	RouteLogout     = "/logout"
	RouteGeoCountry = "/geo/countries"
	RouteGeoStates  = "/geo/states"

	RouteCountries  = "/countries"
	RouteStates     = "/states"
	RouteAccounts   = "/accounts"
	RouteExportCSV  = "/accounts/export.csv"
	RouteDataTable  = "/api/v1/accounts/datatable"
	RouteEvents     = "/events"
	RouteCache      = "/cache"
	RouteSuffixID   = "/{id}"
	RouteSuffixDel  = "/{id}/delete"
	RouteCacheClear = "/cache/clear"
	RouteCacheWarm  = "/cache/warm"
	RouteJobs       = "/jobs"
	RouteJobRun     = "/jobs/{name}/run"

	DefaultBasePath       = "/admin"
	DefaultRequestTimeout = 30 * time.Second
)

// Deps are the collaborators NewRouter wires into handlers.
type Deps struct {
	DB              *sql.DB
	Geo             *service.GeoService
	Accounts        *service.AccountService
	Events          *service.EventService
	Authority       *session.Authority
	Cache           *cache.Manager
	Scheduler       *scheduler.Scheduler
	LoginProtection *middleware.LoginProtection

	BasePath       string
	IsDevelopment  bool
	CSRFKey        []byte
	RequestTimeout time.Duration
}

// crudHandlers defines the standard CRUD handler methods.
type crudHandlers struct {
	List   http.HandlerFunc
	Create http.HandlerFunc
	Get    http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

// registerCRUD registers standard CRUD routes for a resource.
// Routes: GET base, POST base, GET base/{id}, POST base/{id}, POST base/{id}/delete.
func registerCRUD(r chi.Router, base string, h crudHandlers) {
	r.Get(base, h.List)
	r.Post(base, h.Create)
	r.Get(base+RouteSuffixID, h.Get)
	r.Post(base+RouteSuffixID, h.Update) // HTML forms can't send PUT
	r.Post(base+RouteSuffixDel, h.Delete)
}

// NewRouter builds the HTTP handler for the public site and the admin panel.
func NewRouter(d Deps) http.Handler {
	basePath := "/" + strings.Trim(d.BasePath, "/")
	if basePath == "/" {
		basePath = DefaultBasePath
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	authHandler := NewAuthHandler(d.Authority, d.LoginProtection, d.Events)
	homeHandler := NewHomeHandler(d.Authority)
	geoHandler := NewGeoHandler(d.Geo, d.Events)
	accountsHandler := NewAccountsHandler(d.Accounts, d.Events)
	eventsHandler := NewEventsHandler(d.Events)
	healthHandler := NewHealthHandler(d.DB, d.Cache)

	sm := d.Authority.Manager()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(d.IsDevelopment)))

	r.Get(RouteHealth, healthHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig(d.CSRFKey, d.IsDevelopment)))
		r.Use(middleware.VerifyCSRFToken(d.Authority))

		// Public site.
		r.Group(func(r chi.Router) {
			r.Use(middleware.LoadPrincipal(d.Authority, model.KindAccount))
			r.Get(RouteRoot, homeHandler.Home)
			r.Get(RouteGeoCountry, geoHandler.ListCountries)
			r.Get(RouteGeoStates, geoHandler.StatesByCountry)
			r.With(loginThrottle(d.LoginProtection)...).Post(RouteLogin, authHandler.Login(model.KindAccount))
			r.Post(RouteLogout, authHandler.Logout(model.KindAccount))
		})

		// Admin panel.
		r.Route(basePath, func(r chi.Router) {
			r.Use(middleware.LoadPrincipal(d.Authority, model.KindAdmin))
			r.Get(RouteLogin, authHandler.Token(model.KindAdmin))
			r.With(loginThrottle(d.LoginProtection)...).Post(RouteLogin, authHandler.Login(model.KindAdmin))
			r.Post(RouteLogout, authHandler.Logout(model.KindAdmin))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePrincipal(d.Authority, model.KindAdmin, nil))

				registerCRUD(r, RouteCountries, crudHandlers{
					List:   geoHandler.ListCountries,
					Create: geoHandler.CreateCountry,
					Get:    geoHandler.GetCountry,
					Update: geoHandler.UpdateCountry,
					Delete: geoHandler.DeleteCountry,
				})
				registerCRUD(r, RouteStates, crudHandlers{
					List:   geoHandler.ListStates,
					Create: geoHandler.CreateState,
					Get:    geoHandler.GetState,
					Update: geoHandler.UpdateState,
					Delete: geoHandler.DeleteState,
				})
				r.Get(RouteGeoStates, geoHandler.StatesByCountry)

				r.Get(RouteExportCSV, accountsHandler.ExportCSV)
				registerCRUD(r, RouteAccounts, crudHandlers{
					List:   accountsHandler.List,
					Create: accountsHandler.Create,
					Get:    accountsHandler.Get,
					Update: accountsHandler.Update,
					Delete: accountsHandler.Delete,
				})
				r.Get(RouteDataTable, accountsHandler.DataTable)

				if d.Events != nil {
					r.Get(RouteEvents, eventsHandler.List)
				}
				if d.Cache != nil {
					cacheHandler := NewCacheHandler(d.Cache, d.Events)
					r.Get(RouteCache, cacheHandler.Stats)
					r.Post(RouteCacheClear, cacheHandler.Clear)
					r.Post(RouteCacheWarm, cacheHandler.Warm)
				}
				if d.Scheduler != nil {
					jobsHandler := NewJobsHandler(d.Scheduler, d.Events)
					r.Get(RouteJobs, jobsHandler.List)
					r.Post(RouteJobRun, jobsHandler.Run)
				}
			})
		})
	})

	return r
}

// loginThrottle returns the per-IP login rate limiter when configured.
func loginThrottle(lp *middleware.LoginProtection) []func(http.Handler) http.Handler {
	if lp == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{lp.Middleware()}
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/geoadmin/internal/cache"
	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/store"
)

// User-facing messages.
const (
	msgCountryNotFound     = "Country not found."
	msgCountryExists       = "A country with this name already exists."
	msgCountryHasStates    = "Cannot delete country with existing states."
	msgCountryHasAccounts  = "Cannot delete country assigned to users."
	msgCountryInUse        = "Cannot delete country that is still referenced."
	msgStateNotFound       = "State not found."
	msgStateExists         = "A state with this name already exists in the selected country."
	msgStateHasAccounts    = "Cannot delete state assigned to users."
	msgStateMoveInUse      = "Cannot move a state assigned to users to another country."
	msgCountryNameRequired = "Country name is required."
	msgStateNameRequired   = "State name is required."
	msgCountryUnknown      = "Selected country does not exist."
)

// GeoService manages countries and states. Every successful mutation
// invalidates the reference-data cache before returning.
type GeoService struct {
	queries *store.Queries
	geo     *cache.GeoCache
}

// NewGeoService creates a GeoService.
func NewGeoService(queries *store.Queries, geo *cache.GeoCache) *GeoService {
	return &GeoService{queries: queries, geo: geo}
}

// Countries returns all countries through the cache.
func (s *GeoService) Countries(ctx context.Context) ([]store.Country, error) {
	return s.geo.Countries(ctx)
}

// States returns the states of countryID through the cache.
func (s *GeoService) States(ctx context.Context, countryID int64) ([]store.State, error) {
	return s.geo.States(ctx, countryID)
}

// AllStates returns every state with its country name, uncached.
func (s *GeoService) AllStates(ctx context.Context) ([]store.StateWithCountry, error) {
	states, err := s.queries.ListStatesWithCountry(ctx)
	if err != nil {
		return nil, model.Unavailable("list states", err)
	}
	return states, nil
}

// Country returns one country.
func (s *GeoService) Country(ctx context.Context, id int64) (store.Country, error) {
	c, err := s.queries.GetCountry(ctx, id)
	if err != nil {
		return store.Country{}, storeError("get country", err, msgCountryNotFound, "")
	}
	return c, nil
}

// State returns one state.
func (s *GeoService) State(ctx context.Context, id int64) (store.State, error) {
	st, err := s.queries.GetState(ctx, id)
	if err != nil {
		return store.State{}, storeError("get state", err, msgStateNotFound, "")
	}
	return st, nil
}

// CreateCountry inserts a country.
func (s *GeoService) CreateCountry(ctx context.Context, name string) (store.Country, error) {
	const op = "create country"
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Country{}, model.Invalid(op, msgCountryNameRequired)
	}

	now := time.Now().UTC()
	id, err := s.queries.CreateCountry(ctx, store.CreateCountryParams{Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return store.Country{}, storeError(op, err, "", msgCountryExists)
	}
	s.invalidate(ctx, op)

	slog.Info("country created", "country_id", id, "name", name, "category", model.EventCategoryGeo)
	return s.Country(ctx, id)
}

// UpdateCountry renames a country.
func (s *GeoService) UpdateCountry(ctx context.Context, id int64, name string) (store.Country, error) {
	const op = "update country"
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Country{}, model.Invalid(op, msgCountryNameRequired)
	}

	n, err := s.queries.UpdateCountry(ctx, store.UpdateCountryParams{ID: id, Name: name, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return store.Country{}, storeError(op, err, msgCountryNotFound, msgCountryExists)
	}
	if n == 0 {
		return store.Country{}, model.NotFound(op, msgCountryNotFound)
	}
	s.invalidate(ctx, op)

	return s.Country(ctx, id)
}

// DeleteCountry deletes a country that no state or account references.
// The dependent counts and the delete are separate statements; the
// foreign key constraint rejects a dependent inserted in between.
func (s *GeoService) DeleteCountry(ctx context.Context, id int64) error {
	const op = "delete country"

	states, err := s.queries.CountStatesByCountry(ctx, id)
	if err != nil {
		return model.Unavailable(op, err)
	}
	if states > 0 {
		return model.Conflict(op, msgCountryHasStates, nil)
	}

	accounts, err := s.queries.CountAccountsByCountry(ctx, id)
	if err != nil {
		return model.Unavailable(op, err)
	}
	if accounts > 0 {
		return model.Conflict(op, msgCountryHasAccounts, nil)
	}

	n, err := s.queries.DeleteCountry(ctx, id)
	if err != nil {
		return storeError(op, err, msgCountryNotFound, msgCountryInUse)
	}
	if n == 0 {
		return model.NotFound(op, msgCountryNotFound)
	}
	s.invalidate(ctx, op, id)

	slog.Info("country deleted", "country_id", id, "category", model.EventCategoryGeo)
	return nil
}

// CreateState inserts a state under an existing country.
func (s *GeoService) CreateState(ctx context.Context, countryID int64, name string) (store.State, error) {
	const op = "create state"
	name = strings.TrimSpace(name)
	if name == "" {
		return store.State{}, model.Invalid(op, msgStateNameRequired)
	}
	if err := s.requireCountry(ctx, op, countryID); err != nil {
		return store.State{}, err
	}

	now := time.Now().UTC()
	id, err := s.queries.CreateState(ctx, store.CreateStateParams{
		CountryID: countryID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return store.State{}, storeError(op, err, "", msgStateExists)
	}
	s.invalidate(ctx, op)

	slog.Info("state created", "state_id", id, "country_id", countryID, "category", model.EventCategoryGeo)
	return s.State(ctx, id)
}

// UpdateState renames a state or moves it to another country. A state that
// accounts reference cannot change country.
func (s *GeoService) UpdateState(ctx context.Context, id, countryID int64, name string) (store.State, error) {
	const op = "update state"
	name = strings.TrimSpace(name)
	if name == "" {
		return store.State{}, model.Invalid(op, msgStateNameRequired)
	}

	current, err := s.queries.GetState(ctx, id)
	if err != nil {
		return store.State{}, storeError(op, err, msgStateNotFound, "")
	}
	if current.CountryID != countryID {
		if err := s.requireCountry(ctx, op, countryID); err != nil {
			return store.State{}, err
		}
		n, err := s.queries.CountAccountsByState(ctx, id)
		if err != nil {
			return store.State{}, model.Unavailable(op, err)
		}
		if n > 0 {
			return store.State{}, model.Conflict(op, msgStateMoveInUse, nil)
		}
	}

	n, err := s.queries.UpdateState(ctx, store.UpdateStateParams{
		ID:        id,
		CountryID: countryID,
		Name:      name,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return store.State{}, storeError(op, err, msgStateNotFound, msgStateExists)
	}
	if n == 0 {
		return store.State{}, model.NotFound(op, msgStateNotFound)
	}
	s.invalidate(ctx, op, current.CountryID)

	return s.State(ctx, id)
}

// DeleteState deletes a state that no account references.
func (s *GeoService) DeleteState(ctx context.Context, id int64) error {
	const op = "delete state"

	current, err := s.queries.GetState(ctx, id)
	if err != nil {
		return storeError(op, err, msgStateNotFound, "")
	}

	accounts, err := s.queries.CountAccountsByState(ctx, id)
	if err != nil {
		return model.Unavailable(op, err)
	}
	if accounts > 0 {
		return model.Conflict(op, msgStateHasAccounts, nil)
	}

	n, err := s.queries.DeleteState(ctx, id)
	if err != nil {
		return storeError(op, err, msgStateNotFound, msgStateHasAccounts)
	}
	if n == 0 {
		return model.NotFound(op, msgStateNotFound)
	}
	s.invalidate(ctx, op, current.CountryID)

	slog.Info("state deleted", "state_id", id, "category", model.EventCategoryGeo)
	return nil
}

func (s *GeoService) requireCountry(ctx context.Context, op string, countryID int64) error {
	if countryID <= 0 {
		return model.Invalid(op, msgCountryUnknown)
	}
	if _, err := s.queries.GetCountry(ctx, countryID); err != nil {
		if store.IsNotFound(err) {
			return model.Invalid(op, msgCountryUnknown)
		}
		return model.Unavailable(op, err)
	}
	return nil
}

// invalidate drops cached geo data after a committed mutation. It runs even
// if the request context is cancelled and never fails the request.
func (s *GeoService) invalidate(ctx context.Context, op string, extraCountryIDs ...int64) {
	if err := s.geo.Invalidate(context.WithoutCancel(ctx), extraCountryIDs...); err != nil {
		slog.Warn("geo cache invalidation failed",
			"op", op,
			"error", err,
			"category", model.EventCategoryCache,
		)
	}
}

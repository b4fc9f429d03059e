// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/olegiv/geoadmin/internal/model"
	"github.com/olegiv/geoadmin/internal/store"
)

// DefaultGeoTTL is how long country and state lists stay cached.
const DefaultGeoTTL = 300 * time.Second

const countriesKey = "countries"

// StatesKey returns the cache key holding the states of countryID.
func StatesKey(countryID int64) string {
	return "states:" + strconv.FormatInt(countryID, 10)
}

// GeoSource is the durable store behind GeoCache. *store.Queries satisfies it.
type GeoSource interface {
	ListCountries(ctx context.Context) ([]store.Country, error)
	ListCountryIDs(ctx context.Context) ([]int64, error)
	ListStatesByCountry(ctx context.Context, countryID int64) ([]store.State, error)
}

// GeoCache serves country and per-country state lists from a Cacher,
// loading from the source on a miss. Mutations must call Invalidate before
// the mutating request returns.
type GeoCache struct {
	source    GeoSource
	countries *TypedCache[[]store.Country]
	states    *TypedCache[[]store.State]
	backend   Cacher
	ttl       time.Duration
}

// NewGeoCache creates a GeoCache. A non-positive ttl uses DefaultGeoTTL.
func NewGeoCache(backend Cacher, source GeoSource, ttl time.Duration) *GeoCache {
	if ttl <= 0 {
		ttl = DefaultGeoTTL
	}
	return &GeoCache{
		source:    source,
		countries: NewTypedCache[[]store.Country](backend, ttl),
		states:    NewTypedCache[[]store.State](backend, ttl),
		backend:   backend,
		ttl:       ttl,
	}
}

// TTL returns the entry lifetime.
func (g *GeoCache) TTL() time.Duration {
	return g.ttl
}

// Countries returns all countries ordered by name. Store failures are
// reported as model.ErrUnavailable; cache failures never are.
func (g *GeoCache) Countries(ctx context.Context) ([]store.Country, error) {
	v, err := g.countries.GetOrSetWithTTL(ctx, countriesKey, g.ttl, func() (*[]store.Country, error) {
		countries, err := g.source.ListCountries(ctx)
		if err != nil {
			return nil, model.Unavailable("list countries", err)
		}
		return &countries, nil
	})
	if err != nil {
		return nil, err
	}
	return *v, nil
}

// States returns the states of countryID ordered by name. An unknown country
// yields an empty list.
func (g *GeoCache) States(ctx context.Context, countryID int64) ([]store.State, error) {
	v, err := g.states.GetOrSetWithTTL(ctx, StatesKey(countryID), g.ttl, func() (*[]store.State, error) {
		states, err := g.source.ListStatesByCountry(ctx, countryID)
		if err != nil {
			return nil, model.Unavailable("list states", err)
		}
		return &states, nil
	})
	if err != nil {
		return nil, err
	}
	return *v, nil
}

// Invalidate deletes the countries entry and the states entry of every
// country the source currently knows, plus any extra country IDs (for
// example a country that was just deleted). All deletes are attempted; the
// joined error is returned for logging.
func (g *GeoCache) Invalidate(ctx context.Context, extraCountryIDs ...int64) error {
	var errs []error

	if err := g.backend.Delete(ctx, countriesKey); err != nil {
		errs = append(errs, fmt.Errorf("deleting %s: %w", countriesKey, err))
	}

	ids, err := g.source.ListCountryIDs(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("listing country ids: %w", err))
	}
	ids = append(ids, extraCountryIDs...)

	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		key := StatesKey(id)
		if err := g.backend.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("deleting %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

// Warm loads countries and every country's states into the cache,
// replacing what is there.
func (g *GeoCache) Warm(ctx context.Context) (int, error) {
	countries, err := g.source.ListCountries(ctx)
	if err != nil {
		return 0, model.Unavailable("list countries", err)
	}
	if err := g.countries.SetWithTTL(ctx, countriesKey, &countries, g.ttl); err != nil {
		return 0, fmt.Errorf("caching countries: %w", err)
	}

	warmed := 1
	for _, c := range countries {
		states, err := g.source.ListStatesByCountry(ctx, c.ID)
		if err != nil {
			return warmed, model.Unavailable("list states", err)
		}
		if err := g.states.SetWithTTL(ctx, StatesKey(c.ID), &states, g.ttl); err != nil {
			return warmed, fmt.Errorf("caching states of country %d: %w", c.ID, err)
		}
		warmed++
	}

	slog.Debug("geo cache warmed", "entries", warmed)
	return warmed, nil
}

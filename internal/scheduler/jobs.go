// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Built-in job names.
const (
	JobWarmGeoCache = "warm_geo_cache"
	JobPruneEvents  = "prune_events"
)

// PruneSchedule is when old events are removed.
const PruneSchedule = "@daily"

// GeoWarmer reloads the reference-data cache.
type GeoWarmer interface {
	Warm(ctx context.Context) (int, error)
}

// EventPruner deletes audit events older than a cutoff.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// WarmGeoCache returns a job that re-warms countries and every country's
// state list.
func WarmGeoCache(w GeoWarmer, logger *slog.Logger) Job {
	return func(ctx context.Context) error {
		n, err := w.Warm(ctx)
		if err != nil {
			return fmt.Errorf("warming geo cache: %w", err)
		}
		logger.Debug("geo cache re-warmed", "entries", n)
		return nil
	}
}

// PruneEvents returns a job that deletes events older than retention.
func PruneEvents(p EventPruner, retention time.Duration, logger *slog.Logger) Job {
	return func(ctx context.Context) error {
		n, err := p.DeleteOldEvents(ctx, retention)
		if err != nil {
			return fmt.Errorf("pruning events: %w", err)
		}
		if n > 0 {
			logger.Info("old events pruned", "deleted", n, "retention", retention)
		}
		return nil
	}
}

// Config selects the built-in jobs.
type Config struct {
	// WarmSchedule is the cache warmer schedule; empty disables it.
	WarmSchedule string
	// EventRetention is how long events are kept; zero disables pruning.
	EventRetention time.Duration
}

// RegisterDefaults registers the built-in jobs enabled by cfg.
func (s *Scheduler) RegisterDefaults(cfg Config, warmer GeoWarmer, pruner EventPruner) error {
	if cfg.WarmSchedule != "" && warmer != nil {
		if err := s.Register(JobWarmGeoCache, "Re-warm cached countries and states",
			cfg.WarmSchedule, WarmGeoCache(warmer, s.logger)); err != nil {
			return err
		}
	}
	if cfg.EventRetention > 0 && pruner != nil {
		if err := s.Register(JobPruneEvents, "Delete audit events past retention",
			PruneSchedule, PruneEvents(pruner, cfg.EventRetention, s.logger)); err != nil {
			return err
		}
	}
	return nil
}

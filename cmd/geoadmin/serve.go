// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/olegiv/geoadmin/internal/cache"
	"github.com/olegiv/geoadmin/internal/config"
	"github.com/olegiv/geoadmin/internal/handler"
	"github.com/olegiv/geoadmin/internal/logging"
	"github.com/olegiv/geoadmin/internal/middleware"
	"github.com/olegiv/geoadmin/internal/scheduler"
	"github.com/olegiv/geoadmin/internal/service"
	"github.com/olegiv/geoadmin/internal/session"
	"github.com/olegiv/geoadmin/internal/store"
	"github.com/olegiv/geoadmin/internal/version"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return serve(cfg)
	},
}

func serve(cfg *config.Config) error {
	logger, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, Dir: cfg.LogDir})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)
	slog.Info("starting geoadmin", "version", version.Get().String(), "env", cfg.Env)

	dialect := cfg.Dialect()
	if err := ensureDataDir(dialect, cfg.DatabaseURL); err != nil {
		return err
	}
	slog.Info("initializing database", "driver", dialect)
	db, err := store.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer closeDB(db)

	slog.Info("running database migrations")
	if err := store.MigrateDialect(db, dialect); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	logger = logging.WithEventLog(logger, db)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	queries := store.New(db)

	cacheConfig := cache.DefaultCacheConfig()
	cacheConfig.Prefix = cfg.CachePrefix
	cacheConfig.DefaultTTL = cfg.GeoCacheTTL()
	cacheConfig.MaxSize = cfg.CacheMaxSize
	if cfg.UseRedis() {
		cacheConfig.Type = cache.CacheBackendRedis
		cacheConfig.RedisURL = cfg.RedisURL
	}
	cacheManager, err := cache.NewManager(cacheConfig, queries, cfg.GeoCacheTTL())
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacheManager.Close() }()
	if cacheManager.IsFallback {
		slog.Warn("redis unavailable, using memory cache", "url", cache.SanitizeRedisURL(cfg.RedisURL))
	} else {
		slog.Info("cache initialized", "backend", cacheManager.BackendType)
	}

	sm, err := session.New(session.Options{
		IdleTimeout: cfg.SessionTimeout(),
		Secure:      !cfg.IsDevelopment(),
		Store:       sessionStore(cfg, cacheManager),
		DB:          db,
		Redis:       redisClient(cacheManager),
		Prefix:      cfg.CachePrefix,
	})
	if err != nil {
		return fmt.Errorf("initializing sessions: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()

	eventService := service.NewEventService(db)
	geoService := service.NewGeoService(queries, cacheManager.Geo)
	accountService := service.NewAccountService(db, cfg.ListLimits())

	if n, err := cacheManager.Geo.Warm(context.Background()); err != nil {
		slog.Warn("initial geo cache warm failed", "error", err)
	} else {
		slog.Info("geo cache warmed", "entries", n)
	}

	sched := scheduler.New(logger)
	if err := sched.RegisterDefaults(scheduler.Config{
		WarmSchedule:   cfg.WarmSchedule,
		EventRetention: cfg.EventRetention(),
	}, cacheManager.Geo, eventService); err != nil {
		return fmt.Errorf("scheduling jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	router := handler.NewRouter(handler.Deps{
		DB:              db,
		Geo:             geoService,
		Accounts:        accountService,
		Events:          eventService,
		Authority:       session.NewAuthority(sm, queries),
		Cache:           cacheManager,
		Scheduler:       sched,
		LoginProtection: loginProtection,
		BasePath:        cfg.BasePath,
		IsDevelopment:   cfg.IsDevelopment(),
		CSRFKey:         cfg.CSRFKey(),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "base_path", cfg.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// sessionStore resolves SESSION_STORE against what actually came up. A Redis
// store falls back when the cache could not reach Redis.
func sessionStore(cfg *config.Config, cm *cache.Manager) session.StoreKind {
	kind := cfg.SessionStoreKind()
	if kind != session.StoreRedis || cm.Redis() != nil {
		return kind
	}
	fallback := session.StoreMemory
	if cfg.Dialect() == store.DialectSQLite {
		fallback = session.StoreSQLite
	}
	slog.Warn("redis unavailable for sessions, using fallback store", "store", fallback)
	return fallback
}

func redisClient(cm *cache.Manager) *redis.Client {
	if rc := cm.Redis(); rc != nil {
		return rc.Client()
	}
	return nil
}

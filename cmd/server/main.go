// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package main is the entry point for the aocrecs API server.
//
// Startup order:
//
//  1. Flags and optional .env file
//  2. Configuration (Koanf v2: defaults, config.yaml, environment)
//  3. Logging
//  4. Match store (Postgres or a DuckDB snapshot) behind the circuit breaker
//  5. Result cache (memory, Redis or Badger)
//  6. Query services and the rec downloader (when a bucket is configured)
//  7. Supervisor tree: maintenance tasks and the HTTP server
//
// SIGINT and SIGTERM cancel the tree. The HTTP server then fails readiness,
// drains in-flight requests and closes the result cache and the match store,
// all within SERVER_SHUTDOWN_TIMEOUT.
//
// Example:
//
//	export DATABASE_URL=postgres://aocrecs@localhost:5432/aocrecs
//	export STORAGE_BUCKET=aocrecs-recs
//	./aocrecs --env-file .env
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/tomtom215/aocrecs/internal/api"
	"github.com/tomtom215/aocrecs/internal/blob"
	"github.com/tomtom215/aocrecs/internal/cache"
	"github.com/tomtom215/aocrecs/internal/config"
	"github.com/tomtom215/aocrecs/internal/database"
	"github.com/tomtom215/aocrecs/internal/database/query"
	"github.com/tomtom215/aocrecs/internal/logging"
	"github.com/tomtom215/aocrecs/internal/odds"
	"github.com/tomtom215/aocrecs/internal/participants"
	"github.com/tomtom215/aocrecs/internal/ranking"
	"github.com/tomtom215/aocrecs/internal/search"
	"github.com/tomtom215/aocrecs/internal/supervisor"
	"github.com/tomtom215/aocrecs/internal/supervisor/services"
)

var version = "dev"

const (
	storeHealthInterval = 30 * time.Second
	cacheGCInterval     = 10 * time.Minute
	cacheGCDiscardRatio = 0.5
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config.yaml (overrides "+config.ConfigPathEnvVar+")")
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before the environment is read")
	showVersion := pflag.Bool("version", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	// A missing .env is normal in containers.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Fatal().Err(err).Str("file", *envFile).Msg("Failed to load env file")
	}
	if *configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, *configPath); err != nil {
			logging.Fatal().Err(err).Msg("Failed to set config path")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("store", cfg.Database.Backend).
		Str("cache", cfg.Cache.Backend).
		Msg("Starting aocrecs")
	if cfg.IsProduction() && cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is disabled in production")
	}

	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("open match store: %w", err)
	}
	// Normally closed by the HTTP service once requests have drained.
	closeStore := sync.OnceValue(store.Close)
	defer closeStore() //nolint:errcheck // Close only logs

	backend, err := cache.NewBackend(ctx, &cfg.Cache)
	if err != nil {
		return fmt.Errorf("open result cache: %w", err)
	}
	results := cache.New(backend, cfg.Cache.TTL)
	closeResults := sync.OnceValue(results.Close)
	defer func() {
		if err := closeResults(); err != nil {
			logging.Error().Err(err).Msg("Error closing result cache")
		}
	}()

	builder := query.NewSearchBuilder(
		query.MustFlagRegistry(query.DefaultFlags()...),
		query.WithMaxLimit(cfg.API.MaxPageSize),
	)
	svc := api.Services{
		Search:       search.NewService(builder, store, search.WithCache(results, cfg.Cache.TTL)),
		Odds:         odds.NewEngine(store, odds.WithCache(results, cfg.Cache.OddsTTL)),
		Participants: participants.NewService(store, participants.WithCache(results, cfg.Cache.ReportTTL)),
		Ranking:      ranking.NewService(store, ranking.WithCache(results, cfg.Cache.TTL, cfg.Cache.ReportTTL)),
		Health:       store,
	}

	if cfg.Storage.Bucket != "" {
		downloader, err := blob.New(ctx, cfg.Storage, store)
		if err != nil {
			return fmt.Errorf("configure rec storage: %w", err)
		}
		svc.Downloads = downloader
		logging.Info().Str("bucket", cfg.Storage.Bucket).Msg("Rec downloads enabled")
	} else {
		logging.Info().Msg("Rec downloads disabled (STORAGE_BUCKET not set)")
	}

	handler := api.NewHandler(svc, cfg)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.NewChiMiddlewareConfig(cfg.Security)))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + time.Second,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddMaintenanceService(services.NewPeriodicService("store-health", storeHealthInterval, services.StoreHealthTask(store)))
	if gc, ok := backend.(services.GarbageCollector); ok {
		tree.AddMaintenanceService(services.NewPeriodicService("cache-gc", cacheGCInterval, services.CacheGCTask(gc, cacheGCDiscardRatio)))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout,
		services.WithDrainNotifier(handler.StartDraining),
		services.WithShutdownHooks(
			services.ShutdownHook{Name: "result-cache", Run: func(context.Context) error { return closeResults() }},
			services.ShutdownHook{Name: "match-store", Run: func(context.Context) error { return closeStore() }},
		),
	))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := <-tree.ServeBackground(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // best-effort diagnostics
	for _, s := range unstopped {
		logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}

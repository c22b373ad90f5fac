// aocrecs - Recorded Game Analytics API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aocrecs

// Package config loads the service configuration.
//
// Sources are layered in this order, later sources winning:
//  1. Built-in defaults (defaultConfig)
//  2. An optional YAML file (CONFIG_PATH, config.yaml, /etc/aocrecs/config.yaml)
//  3. Environment variables, mapped explicitly in envTransformFunc
//
// Config is read-only after Load returns and is safe for concurrent reads.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Storage  StorageConfig  `koanf:"storage"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendDuckDB   = "duckdb"
)

// DatabaseConfig selects and tunes the match store.
type DatabaseConfig struct {
	// Backend is "postgres" (the live match database) or "duckdb"
	// (a read-only snapshot file, useful for offline analysis).
	Backend string `koanf:"backend"`

	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`

	DuckDBPath    string `koanf:"duckdb_path"`
	DuckDBThreads int    `koanf:"duckdb_threads"`

	// QueryTimeout bounds a single store round-trip. Zero disables it.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of the store.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheBadger = "badger"
	CacheNone   = "none"
)

// CacheConfig configures result caching.
type CacheConfig struct {
	Backend   string        `koanf:"backend"`
	TTL       time.Duration `koanf:"ttl"`
	OddsTTL   time.Duration `koanf:"odds_ttl"`
	ReportTTL time.Duration `koanf:"report_ttl"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	BadgerPath string `koanf:"badger_path"`
}

// StorageConfig locates recorded game files in S3-compatible storage.
type StorageConfig struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	UsePathStyle    bool   `koanf:"use_path_style"`

	// DownloadsPerSecond throttles fetches from the bucket.
	DownloadsPerSecond float64 `koanf:"downloads_per_second"`
	DownloadBurst      int     `koanf:"download_burst"`
}

// APIConfig holds pagination limits.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SecurityConfig holds CORS and rate limiting. There is no authentication.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

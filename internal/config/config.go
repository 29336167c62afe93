// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

// Package config loads Cohortlens configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import "time"

// Store drivers accepted by StoreConfig.Driver.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverDuckDB    = "duckdb"
	DriverMemory    = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// SecurityConfig holds inbound rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig selects and configures the record store backend.
type StoreConfig struct {
	// Driver is one of postgrest, postgres, duckdb, memory.
	Driver string `koanf:"driver"`

	// URL and APIKey address a PostgREST endpoint.
	URL    string `koanf:"url"`
	APIKey string `koanf:"api_key"`
	Schema string `koanf:"schema"`

	// DSN is the Postgres connection string.
	DSN string `koanf:"dsn"`

	// Path is the DuckDB database file.
	Path string `koanf:"path"`

	// FixturePath is the JSON snapshot loaded by the memory driver.
	FixturePath string `koanf:"fixture_path"`

	// IdentityTable holds (id, email) rows for the identity directory.
	IdentityTable string `koanf:"identity_table"`

	FetchLimit        int           `koanf:"fetch_limit"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	MaxRetries        int           `koanf:"max_retries"`
	HealthInterval    time.Duration `koanf:"health_interval"`
}

// AnalyticsConfig holds engine settings.
type AnalyticsConfig struct {
	InternalEmailDomains []string      `koanf:"internal_email_domains"`
	Timezone             string        `koanf:"timezone"`
	RequestTimeout       time.Duration `koanf:"request_timeout"`
	FetchConcurrency     int           `koanf:"fetch_concurrency"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Location resolves the configured timezone. Validate guarantees it loads.
func (a *AnalyticsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	validLogLevels = map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true,
		"error": true, "fatal": true, "panic": true, "disabled": true,
	}
	validLogFormats = map[string]bool{"json": true, "console": true}
	validDrivers    = map[string]bool{
		DriverPostgREST: true, DriverPostgres: true, DriverDuckDB: true, DriverMemory: true,
	}
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// Validate checks that configuration values are usable.
//
// Missing PostgREST credentials are not rejected here: the store reports
// them on its first fetch so that a misconfigured deployment still serves
// health and metrics endpoints.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	return c.validateAnalytics()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive when rate limiting is enabled")
	}
	if c.Security.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, disabled; got %q", c.Logging.Level)
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be json or console; got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateStore() error {
	s := &c.Store
	if !validDrivers[s.Driver] {
		return fmt.Errorf("STORE_DRIVER must be one of postgrest, postgres, duckdb, memory; got %q", s.Driver)
	}
	if s.FetchLimit <= 0 {
		return fmt.Errorf("STORE_FETCH_LIMIT must be positive")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if s.HealthInterval < time.Second {
		return fmt.Errorf("STORE_HEALTH_INTERVAL must be at least 1s")
	}
	if !identifierPattern.MatchString(s.IdentityTable) {
		return fmt.Errorf("STORE_IDENTITY_TABLE must be a plain identifier; got %q", s.IdentityTable)
	}

	switch s.Driver {
	case DriverPostgREST:
		if s.URL != "" {
			if err := validateHTTPURL(s.URL, "STORE_URL"); err != nil {
				return fmt.Errorf("STORE_URL is invalid: %w", err)
			}
		}
		if s.RequestsPerSecond < 0 {
			return fmt.Errorf("STORE_REQUESTS_PER_SECOND must not be negative")
		}
		if s.MaxRetries < 0 || s.MaxRetries > 10 {
			return fmt.Errorf("STORE_MAX_RETRIES must be between 0 and 10")
		}
	case DriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("STORE_DSN is required when STORE_DRIVER=postgres")
		}
	case DriverDuckDB:
		if s.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when STORE_DRIVER=duckdb")
		}
	case DriverMemory:
		// An empty fixture path serves an empty snapshot.
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	a := &c.Analytics
	if _, err := time.LoadLocation(a.Timezone); err != nil {
		return fmt.Errorf("ANALYTICS_TIMEZONE is invalid: %w", err)
	}
	if a.RequestTimeout <= 0 {
		return fmt.Errorf("ANALYTICS_REQUEST_TIMEOUT must be positive")
	}
	if a.FetchConcurrency < 1 {
		return fmt.Errorf("ANALYTICS_FETCH_CONCURRENCY must be at least 1")
	}
	for _, d := range a.InternalEmailDomains {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("INTERNAL_EMAIL_DOMAINS must not contain empty entries")
		}
	}
	return nil
}

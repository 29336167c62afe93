// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

/*
Package main is the entry point for the Cohortlens server.

Cohortlens reads the raw records of a learning platform (courses, modules,
lessons, enrollments, lesson progress, profiles, surveys, metric snapshots,
organizations and partnerships) from a record store, cleans them, and serves
aggregated cohort analytics over a JSON REST API. Nothing is persisted: every
request fetches a fresh snapshot.

# Application Architecture

	RootSupervisor ("cohortlens")
	├── DataSupervisor ("data-layer")
	│   └── Store health probe
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Record store: PostgREST, Postgres, DuckDB or an in-memory fixture,
    wrapped in a circuit breaker
 4. Analytics engine: fetcher, cleaner and the four aggregators
 5. Supervisor tree: Suture v4 process supervision
 6. HTTP server: Chi router with middleware stack

# Configuration

Priority: Environment variables > Config file > Defaults

	# Server
	HTTP_PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Record store
	STORE_DRIVER=postgrest       # postgrest, postgres, duckdb, memory
	STORE_URL=https://project.supabase.co/rest/v1
	STORE_API_KEY=<service key>
	STORE_DSN=postgres://...     # postgres driver
	DUCKDB_PATH=/data/cohortlens.duckdb
	STORE_FIXTURE_PATH=fixture.json

	# Analytics
	INTERNAL_EMAIL_DOMAINS=example.org,staff.example.org
	ANALYTICS_TIMEZONE=America/New_York

# Endpoints

	GET /api/v1/health/live
	GET /api/v1/health/ready
	GET /api/v1/analytics/completion?date_from=&date_to=&course_id=
	GET /api/v1/analytics/engagement
	GET /api/v1/analytics/outcomes
	GET /api/v1/analytics/summary
	GET /metrics

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server gracefully, then the record store is closed.
*/
package main

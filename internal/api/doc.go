// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

/*
Package api serves the analytics engine over HTTP using the Chi router.

Endpoints:

	GET /api/v1/analytics/completion   completion, funnel, popularity
	GET /api/v1/analytics/engagement   recency, heatmap, cohorts, return rate
	GET /api/v1/analytics/outcomes     stress, planning, implementation, impact
	GET /api/v1/analytics/summary      all three from one fetch
	GET /api/v1/health/live            liveness
	GET /api/v1/health/ready           readiness from the store probe
	GET /metrics                       Prometheus exposition

Analytics endpoints accept date_from and date_to (YYYY-MM-DD, inclusive,
interpreted in the configured timezone) and course_id. A parameter that
fails validation is ignored rather than rejected.

Every response uses the same envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","query_time_ms":12}}

Errors carry a machine-readable code:

	STORE_NOT_CONFIGURED  500  store credentials missing
	STORE_ERROR           500  any other fetch failure
	TIMEOUT               504  analytics.request_timeout elapsed
	SERVICE_UNAVAILABLE   503  store circuit breaker open
	TOO_MANY_REQUESTS     429  rate limit exceeded
*/
package api

// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

/*
Package services provides suture.Service wrappers for Cohortlens components.

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the blocking ListenAndServe pattern to Serve

Store Health (StoreHealthService):
  - Pings the record store on an interval
  - Publishes the result to the cohortlens_store_up gauge
  - Implements the readiness probe consumed by the API

Returning an error from Serve asks the supervisor to restart the service;
returning after ctx is done is a clean stop.
*/
package services

// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

/*
Package models defines the data structures shared across Cohortlens.

Model categories:

 1. Source records (records.go): read-only rows returned by the record store.
    Optional numeric and time fields use OptFloat and OptTime so that a missing
    value can never be mistaken for zero.

 2. Metric names (metric.go): the closed set of snapshot metric tags and the
    aggregation bucket each one feeds.

 3. Analytics results (analytics_*.go): the JSON payloads returned by the
    completion, engagement and outcome endpoints.

 4. API envelope (api_responses.go): APIResponse, Metadata and APIError.
*/
package models

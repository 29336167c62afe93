// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

/*
Package analytics computes the dashboard aggregates from a cleaned
ingest.Snapshot.

Each request runs fetch -> clean -> compute -> assemble. The compute step
fans out one goroutine per stage:

	completion   completion by school, time to complete, funnel, course options
	popularity   per course totals and the six bucket rolling trend
	engagement   recency classes, dormant list, heatmap, cohorts, return rate
	outcomes     stress trend, planning before/after, implementation, impact cards

Stages only read the snapshot and the shared index built from it, so they
need no locking. Aggregation code performs no I/O; all blocking happens in
the ingest fetch. The clock and the calendar location are injected so that
results are reproducible in tests.

Conventions:
  - Percentages are integers in [0, 100]; a zero denominator gives 0.
  - Means are rounded to one decimal; a metric without samples is null.
  - Every list output is non-nil so empty input encodes as [].
*/
package analytics

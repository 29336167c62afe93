// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

/*
Package ingest fetches the record sets one analytics request needs and
cleans them into an immutable Snapshot.

Pipeline:

	Fetcher.Fetch   -> RawSnapshot  (ten entity fetches + identity lookup, concurrent)
	Cleaner.Clean   -> Snapshot     (test-account exclusion, then date filtering)

Any fetch failure fails the whole request with an error wrapping ErrFetch.
Cleaning never fails: rows with missing optional fields are kept and treated
as having no sample downstream.

Test accounts are users whose email contains "test", "demo" or
"example.com", or ends with a configured internal domain. Matching is
case-insensitive. Excluded users disappear from profiles, enrollments,
lesson progress and survey responses before any aggregate is computed.
*/
package ingest

// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is built once and shared; it caches struct
// metadata, so concurrent use is cheap. Field names in errors come from the
// `query` struct tag when present, so messages name the query parameter the
// caller actually sent.
//
// # Custom Tags
//
//   - dateonly: a calendar date in YYYY-MM-DD form
//   - identifier: 1 to 128 characters of [A-Za-z0-9_-]
//
// # Usage
//
//	type AnalyticsQuery struct {
//	    DateFrom string `query:"date_from" validate:"omitempty,dateonly"`
//	    CourseID string `query:"course_id" validate:"omitempty,identifier"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    for _, f := range verr.Fields() {
//	        // drop or reject the offending parameter
//	    }
//	}
package validation

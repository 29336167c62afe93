// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/cohortlens/internal/analytics"
	"github.com/tomtom215/cohortlens/internal/ingest"
	"github.com/tomtom215/cohortlens/internal/logging"
	"github.com/tomtom215/cohortlens/internal/validation"
)

// AnalyticsQuery holds the query parameters shared by every analytics
// endpoint. All fields are optional.
type AnalyticsQuery struct {
	DateFrom string `query:"date_from" validate:"omitempty,dateonly"`
	DateTo   string `query:"date_to" validate:"omitempty,dateonly"`
	CourseID string `query:"course_id" validate:"omitempty,identifier"`
}

// parseAnalyticsQuery reads and validates the query string. Invalid
// parameters are not an error: each one that fails validation is dropped
// and falls back to its default (unrestricted dates, first published course).
func parseAnalyticsQuery(r *http.Request) AnalyticsQuery {
	values := r.URL.Query()
	q := AnalyticsQuery{
		DateFrom: strings.TrimSpace(values.Get("date_from")),
		DateTo:   strings.TrimSpace(values.Get("date_to")),
		CourseID: strings.TrimSpace(values.Get("course_id")),
	}

	verr := validation.ValidateStruct(&q)
	if verr == nil {
		return q
	}

	for _, field := range verr.Fields() {
		switch field {
		case "date_from":
			q.DateFrom = ""
		case "date_to":
			q.DateTo = ""
		case "course_id":
			q.CourseID = ""
		}
	}
	logging.Ctx(r.Context()).Debug().
		Str("path", r.URL.Path).
		Str("reason", sanitizeLogValue(verr.Error())).
		Msg("Ignoring invalid analytics query parameters")
	return q
}

// Request converts q into an engine request with calendar dates in loc.
func (q AnalyticsQuery) Request(loc *time.Location) analytics.Request {
	return analytics.Request{
		Range:    ingest.ParseDateRange(q.DateFrom, q.DateTo, loc),
		CourseID: q.CourseID,
	}
}

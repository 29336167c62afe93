// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package ingest

import (
	"time"

	"github.com/tomtom215/cohortlens/internal/models"
)

// DateLayout is the accepted date_from / date_to format.
const DateLayout = "2006-01-02"

// DateRange is an inclusive calendar range. A zero bound is open.
type DateRange struct {
	// From is the first instant included.
	From time.Time
	// To is the first instant excluded (midnight after the last day).
	To time.Time
}

// ParseDateRange interprets from and to as calendar dates in loc. Either side
// may be empty. A malformed side is treated as open, and an inverted range
// falls back to unrestricted.
func ParseDateRange(from, to string, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	var r DateRange
	if from != "" {
		if t, err := time.ParseInLocation(DateLayout, from, loc); err == nil {
			r.From = t
		}
	}
	if to != "" {
		if t, err := time.ParseInLocation(DateLayout, to, loc); err == nil {
			r.To = t.AddDate(0, 0, 1)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && !r.From.Before(r.To) {
		return DateRange{}
	}
	return r
}

// IsZero reports an unrestricted range.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether t falls inside the range. Missing timestamps are
// always contained.
func (r DateRange) Contains(t models.OptTime) bool {
	if !t.Valid {
		return true
	}
	if !r.From.IsZero() && t.Time.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Time.Before(r.To) {
		return false
	}
	return true
}

// FromDate and ToDate render the bounds for response metadata.
func (r DateRange) FromDate() string {
	if r.From.IsZero() {
		return ""
	}
	return r.From.Format(DateLayout)
}

// ToDate returns the last included day, or "" when open.
func (r DateRange) ToDate() string {
	if r.To.IsZero() {
		return ""
	}
	return r.To.AddDate(0, 0, -1).Format(DateLayout)
}

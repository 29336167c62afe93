// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package models

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var nullLiteral = []byte("null")

// OptFloat is an optional number. Decoding never fails: null, a missing
// field, a non-numeric string or a non-finite value all yield an invalid
// OptFloat rather than zero.
type OptFloat struct {
	Float64 float64
	Valid   bool
}

// NewOptFloat returns a valid OptFloat.
func NewOptFloat(v float64) OptFloat {
	return OptFloat{Float64: v, Valid: true}
}

// Ptr returns nil when f is invalid.
func (f OptFloat) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func parseOptFloat(s string) OptFloat {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return OptFloat{}
	}
	return NewOptFloat(v)
}

// UnmarshalJSON accepts a number, a numeric string or null.
func (f *OptFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, nullLiteral):
		*f = OptFloat{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = OptFloat{}
			return nil
		}
		*f = parseOptFloat(s)
	default:
		*f = parseOptFloat(string(data))
	}
	return nil
}

// MarshalJSON writes null for an invalid value.
func (f OptFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return nullLiteral, nil
	}
	return strconv.AppendFloat(nil, f.Float64, 'f', -1, 64), nil
}

// finiteOptFloat maps NaN and infinities to null.
func finiteOptFloat(v float64) OptFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return OptFloat{}
	}
	return NewOptFloat(v)
}

// Scan implements sql.Scanner.
func (f *OptFloat) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*f = OptFloat{}
	case float64:
		*f = finiteOptFloat(v)
	case float32:
		*f = finiteOptFloat(float64(v))
	case int64:
		*f = NewOptFloat(float64(v))
	case int32:
		*f = NewOptFloat(float64(v))
	case []byte:
		*f = parseOptFloat(string(v))
	case string:
		*f = parseOptFloat(v)
	default:
		return fmt.Errorf("unsupported type %T for OptFloat", src)
	}
	return nil
}

// timeLayouts are tried in order when decoding a timestamp string.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// OptTime is an optional timestamp. Date-only values decode to midnight UTC
// and unparseable values decode to invalid.
type OptTime struct {
	Time  time.Time
	Valid bool
}

// NewOptTime returns a valid OptTime.
func NewOptTime(t time.Time) OptTime {
	return OptTime{Time: t, Valid: true}
}

// ParseOptTime parses s using the accepted layouts.
func ParseOptTime(s string) OptTime {
	s = strings.TrimSpace(s)
	if s == "" {
		return OptTime{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewOptTime(t)
		}
	}
	return OptTime{}
}

// After reports whether t is valid and later than u. An invalid u sorts
// before every valid time.
func (t OptTime) After(u OptTime) bool {
	return t.Valid && (!u.Valid || t.Time.After(u.Time))
}

// UnmarshalJSON accepts a timestamp string or null.
func (t *OptTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		*t = OptTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = OptTime{}
		return nil
	}
	*t = ParseOptTime(s)
	return nil
}

// MarshalJSON writes RFC 3339 or null.
func (t OptTime) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return nullLiteral, nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Scan implements sql.Scanner.
func (t *OptTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = OptTime{}
	case time.Time:
		*t = NewOptTime(v)
	case []byte:
		*t = ParseOptTime(string(v))
	case string:
		*t = ParseOptTime(v)
	default:
		return fmt.Errorf("unsupported type %T for OptTime", src)
	}
	return nil
}

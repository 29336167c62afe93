// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

// Package store provides read access to the learning records the analytics
// engine aggregates. A RecordStore is opened once in main, injected into the
// engine and closed on shutdown.
//
// Backends:
//   - PostgRESTStore: a PostgREST (or Supabase REST) endpoint over HTTP
//   - SQLStore: Postgres through pgx or an embedded DuckDB file
//   - MemoryStore: an in-process snapshot, optionally loaded from a JSON fixture
//
// BreakerStore wraps any backend with a circuit breaker and fetch metrics.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/cohortlens/internal/models"
)

// Entity names a row set. The value is also the table name.
type Entity string

// Entities read by the engine.
const (
	EntityEnrollments     Entity = "enrollments"
	EntityCourses         Entity = "courses"
	EntityModules         Entity = "modules"
	EntityLessons         Entity = "lessons"
	EntityLessonProgress  Entity = "lesson_progress"
	EntityProfiles        Entity = "profiles"
	EntitySurveyResponses Entity = "survey_responses"
	EntityMetricSnapshots Entity = "metric_snapshots"
	EntityOrganizations   Entity = "organizations"
	EntityPartnerships    Entity = "partnerships"
	EntityIdentities      Entity = "identities"
)

var (
	// ErrNotConfigured is returned on the first fetch when the backend lacks
	// an endpoint or credentials. It is never retried.
	ErrNotConfigured = errors.New("record store is not configured")

	// ErrUnknownColumn is returned when a Query names a column the entity
	// does not have.
	ErrUnknownColumn = errors.New("unknown column")
)

// Filter is an equality predicate. Values compare as text.
type Filter struct {
	Column string
	Value  string
}

// Query is the filter, order and limit applied to one fetch.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	// Limit caps the number of rows. Zero means no cap.
	Limit int
}

// Where returns a copy of q with an added equality filter.
func (q Query) Where(column, value string) Query {
	filters := make([]Filter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, Filter{Column: column, Value: value})
	return q
}

// Order returns a copy of q ordered by column.
func (q Query) Order(column string, descending bool) Query {
	q.OrderBy = column
	q.Descending = descending
	return q
}

// validate checks every referenced column against the entity's columns.
func (q Query) validate(entity Entity) error {
	spec, ok := tables[entity]
	if !ok {
		return fmt.Errorf("unknown entity %q", entity)
	}
	check := func(col string) error {
		if _, ok := spec.index[col]; !ok {
			return fmt.Errorf("%s.%s: %w", entity, col, ErrUnknownColumn)
		}
		return nil
	}
	for _, f := range q.Filters {
		if err := check(f.Column); err != nil {
			return err
		}
	}
	if q.OrderBy != "" {
		return check(q.OrderBy)
	}
	return nil
}

// RecordStore returns typed rows for each entity.
type RecordStore interface {
	Enrollments(ctx context.Context, q Query) ([]models.Enrollment, error)
	Courses(ctx context.Context, q Query) ([]models.Course, error)
	Modules(ctx context.Context, q Query) ([]models.Module, error)
	Lessons(ctx context.Context, q Query) ([]models.Lesson, error)
	LessonProgress(ctx context.Context, q Query) ([]models.LessonProgress, error)
	Profiles(ctx context.Context, q Query) ([]models.Profile, error)
	SurveyResponses(ctx context.Context, q Query) ([]models.SurveyResponse, error)
	MetricSnapshots(ctx context.Context, q Query) ([]models.MetricSnapshot, error)
	Organizations(ctx context.Context, q Query) ([]models.Organization, error)
	Partnerships(ctx context.Context, q Query) ([]models.Partnership, error)

	// Ping checks connectivity without reading rows.
	Ping(ctx context.Context) error
	// Driver names the backend for logs and metrics.
	Driver() string
	Close() error
}

// IdentityDirectory maps user ids to email addresses.
type IdentityDirectory interface {
	// Emails returns up to limit id to email pairs.
	Emails(ctx context.Context, limit int) (map[string]string, error)
}

// Backend is a RecordStore that is also an IdentityDirectory. Every
// backend in this package implements it.
type Backend interface {
	RecordStore
	IdentityDirectory
}

// tableSpec describes the columns of one entity. exprs holds the SQL select
// expression for each column so that every backend yields the same shape.
type tableSpec struct {
	columns []string
	exprs   []string
	index   map[string]int
}

func newTableSpec(cols ...[2]string) tableSpec {
	spec := tableSpec{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		spec.columns = append(spec.columns, c[0])
		spec.exprs = append(spec.exprs, c[1])
		spec.index[c[0]] = i
	}
	return spec
}

func text(col string) [2]string { return [2]string{col, "COALESCE(CAST(" + col + " AS TEXT), '')"} }
func optText(col string) [2]string { return [2]string{col, "CAST(" + col + " AS TEXT)"} }
func str(col string) [2]string { return [2]string{col, "COALESCE(" + col + ", '')"} }
func number(col string) [2]string { return [2]string{col, "CAST(" + col + " AS FLOAT8)"} }
func raw(col string) [2]string { return [2]string{col, col} }

var tables = map[Entity]tableSpec{
	EntityEnrollments: newTableSpec(text("id"), text("user_id"), text("course_id"), str("status"),
		number("progress_percentage"), raw("enrolled_at"), raw("completed_at"), raw("created_at")),
	EntityCourses: newTableSpec(text("id"), str("title"), str("category"),
		[2]string{"is_published", "COALESCE(is_published, false)"}),
	EntityModules: newTableSpec(text("id"), text("course_id"), str("title"),
		[2]string{"order_index", "COALESCE(order_index, 0)"}),
	EntityLessons: newTableSpec(text("id"), text("module_id"), str("title"),
		[2]string{"order_index", "COALESCE(order_index, 0)"}),
	EntityLessonProgress: newTableSpec(text("id"), text("user_id"), text("lesson_id"), text("course_id"),
		raw("completed_at")),
	EntityProfiles: newTableSpec(text("id"), str("display_name"), optText("onboarding_data"), raw("created_at")),
	EntitySurveyResponses: newTableSpec(text("id"), text("organization_id"), optText("staff_member_id"), str("survey_type"),
		number("stress_level"), number("planning_hours"), number("implementation_confidence"),
		number("retention_intent"), number("feeling_valued"), raw("submitted_at")),
	EntityMetricSnapshots: newTableSpec(text("id"), text("organization_id"), optText("building_id"), str("metric_name"),
		number("metric_value"), raw("snapshot_date")),
	EntityOrganizations: newTableSpec(text("id"), optText("partnership_id"), str("name")),
	EntityPartnerships:  newTableSpec(text("id"), str("slug"), optText("contract_phase"), raw("contract_start_date")),
	EntityIdentities:    newTableSpec(text("id"), str("email")),
}

// columnList returns the plain column names of entity, comma separated.
func columnList(entity Entity) string {
	return strings.Join(tables[entity].columns, ",")
}

// limitString renders a positive limit, "" otherwise.
func limitString(limit int) string {
	if limit <= 0 {
		return ""
	}
	return strconv.Itoa(limit)
}

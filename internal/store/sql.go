// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	_ "github.com/jackc/pgx/v5/stdlib"  // registers the "pgx" driver

	"github.com/tomtom215/cohortlens/internal/config"
	"github.com/tomtom215/cohortlens/internal/models"
)

// SQLStore reads rows through database/sql. The same queries run on
// Postgres (pgx) and DuckDB; dialect differences are kept out of the
// select expressions in tableSpec.
type SQLStore struct {
	conn          *sql.DB
	driver        string
	schema        string
	identityTable string
}

// OpenPostgres connects to Postgres using the pgx stdlib driver.
func OpenPostgres(cfg *config.StoreConfig) (*SQLStore, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	conn.SetMaxOpenConns(16)
	conn.SetMaxIdleConns(4)
	conn.SetConnMaxIdleTime(5 * time.Minute)
	return newSQLStore(conn, config.DriverPostgres, cfg.Schema, cfg.IdentityTable), nil
}

// OpenDuckDB opens a DuckDB file read-only.
func OpenDuckDB(cfg *config.StoreConfig) (*SQLStore, error) {
	connStr := fmt.Sprintf("%s?access_mode=read_only&threads=%d", cfg.Path, runtime.NumCPU())
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return newSQLStore(conn, config.DriverDuckDB, "", cfg.IdentityTable), nil
}

// NewSQLStore wraps an existing connection. driver is a config.Driver* name.
func NewSQLStore(conn *sql.DB, driver, schema, identityTable string) *SQLStore {
	return newSQLStore(conn, driver, schema, identityTable)
}

func newSQLStore(conn *sql.DB, driver, schema, identityTable string) *SQLStore {
	return &SQLStore{conn: conn, driver: driver, schema: schema, identityTable: identityTable}
}

// Driver implements RecordStore.
func (s *SQLStore) Driver() string { return s.driver }

// Ping implements RecordStore.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%s ping: %w", s.driver, err)
	}
	return nil
}

// Close implements RecordStore.
func (s *SQLStore) Close() error {
	return s.conn.Close()
}

func (s *SQLStore) qualify(table string) string {
	if s.schema == "" {
		return table
	}
	return s.schema + "." + table
}

// buildQuery renders the SELECT for q. Column names come from tableSpec
// (validated by q.validate) and values are bound as parameters.
func (s *SQLStore) buildQuery(table string, entity Entity, q Query) (string, []interface{}) {
	spec := tables[entity]

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(spec.exprs, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.qualify(table))

	args := make([]interface{}, 0, len(q.Filters))
	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, f.Value)
		b.WriteString("CAST(" + f.Column + " AS TEXT) = $" + strconv.Itoa(len(args)))
	}
	if q.OrderBy != "" {
		b.WriteString(" ORDER BY " + q.OrderBy)
		if q.Descending {
			b.WriteString(" DESC")
		}
		// Postgres sorts NULLs first under DESC; a capped fetch must keep dated rows.
		b.WriteString(" NULLS LAST")
	}
	if l := limitString(q.Limit); l != "" {
		b.WriteString(" LIMIT " + l)
	}
	return b.String(), args
}

// queryRows runs q and scans every row with scan.
func queryRows[T any](ctx context.Context, s *SQLStore, table string, entity Entity, q Query,
	scan func(*sql.Rows, *T) error) ([]T, error) {
	if err := q.validate(entity); err != nil {
		return nil, err
	}

	query, args := s.buildQuery(table, entity, q)
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var row T
		if err := scan(rows, &row); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}
	return out, nil
}

// Enrollments implements RecordStore.
func (s *SQLStore) Enrollments(ctx context.Context, q Query) ([]models.Enrollment, error) {
	return queryRows(ctx, s, string(EntityEnrollments), EntityEnrollments, q, func(r *sql.Rows, e *models.Enrollment) error {
		return r.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &e.ProgressPercentage,
			&e.EnrolledAt, &e.CompletedAt, &e.CreatedAt)
	})
}

// Courses implements RecordStore.
func (s *SQLStore) Courses(ctx context.Context, q Query) ([]models.Course, error) {
	return queryRows(ctx, s, string(EntityCourses), EntityCourses, q, func(r *sql.Rows, c *models.Course) error {
		return r.Scan(&c.ID, &c.Title, &c.Category, &c.IsPublished)
	})
}

// Modules implements RecordStore.
func (s *SQLStore) Modules(ctx context.Context, q Query) ([]models.Module, error) {
	return queryRows(ctx, s, string(EntityModules), EntityModules, q, func(r *sql.Rows, m *models.Module) error {
		return r.Scan(&m.ID, &m.CourseID, &m.Title, &m.OrderIndex)
	})
}

// Lessons implements RecordStore.
func (s *SQLStore) Lessons(ctx context.Context, q Query) ([]models.Lesson, error) {
	return queryRows(ctx, s, string(EntityLessons), EntityLessons, q, func(r *sql.Rows, l *models.Lesson) error {
		return r.Scan(&l.ID, &l.ModuleID, &l.Title, &l.OrderIndex)
	})
}

// LessonProgress implements RecordStore.
func (s *SQLStore) LessonProgress(ctx context.Context, q Query) ([]models.LessonProgress, error) {
	return queryRows(ctx, s, string(EntityLessonProgress), EntityLessonProgress, q, func(r *sql.Rows, p *models.LessonProgress) error {
		return r.Scan(&p.ID, &p.UserID, &p.LessonID, &p.CourseID, &p.CompletedAt)
	})
}

// Profiles implements RecordStore.
func (s *SQLStore) Profiles(ctx context.Context, q Query) ([]models.Profile, error) {
	return queryRows(ctx, s, string(EntityProfiles), EntityProfiles, q, func(r *sql.Rows, p *models.Profile) error {
		return r.Scan(&p.ID, &p.DisplayName, &p.Onboarding, &p.CreatedAt)
	})
}

// SurveyResponses implements RecordStore.
func (s *SQLStore) SurveyResponses(ctx context.Context, q Query) ([]models.SurveyResponse, error) {
	return queryRows(ctx, s, string(EntitySurveyResponses), EntitySurveyResponses, q, func(r *sql.Rows, sr *models.SurveyResponse) error {
		return r.Scan(&sr.ID, &sr.OrganizationID, &sr.StaffMemberID, &sr.SurveyType, &sr.StressLevel,
			&sr.PlanningHours, &sr.ImplementationConfidence, &sr.RetentionIntent, &sr.FeelingValued, &sr.SubmittedAt)
	})
}

// MetricSnapshots implements RecordStore.
func (s *SQLStore) MetricSnapshots(ctx context.Context, q Query) ([]models.MetricSnapshot, error) {
	return queryRows(ctx, s, string(EntityMetricSnapshots), EntityMetricSnapshots, q, func(r *sql.Rows, m *models.MetricSnapshot) error {
		return r.Scan(&m.ID, &m.OrganizationID, &m.BuildingID, &m.MetricName, &m.MetricValue, &m.SnapshotDate)
	})
}

// Organizations implements RecordStore.
func (s *SQLStore) Organizations(ctx context.Context, q Query) ([]models.Organization, error) {
	return queryRows(ctx, s, string(EntityOrganizations), EntityOrganizations, q, func(r *sql.Rows, o *models.Organization) error {
		return r.Scan(&o.ID, &o.PartnershipID, &o.Name)
	})
}

// Partnerships implements RecordStore.
func (s *SQLStore) Partnerships(ctx context.Context, q Query) ([]models.Partnership, error) {
	return queryRows(ctx, s, string(EntityPartnerships), EntityPartnerships, q, func(r *sql.Rows, p *models.Partnership) error {
		return r.Scan(&p.ID, &p.Slug, &p.ContractPhase, &p.ContractStartDate)
	})
}

// Emails implements IdentityDirectory.
func (s *SQLStore) Emails(ctx context.Context, limit int) (map[string]string, error) {
	rows, err := queryRows(ctx, s, s.identityTable, EntityIdentities, Query{Limit: limit}, func(r *sql.Rows, row *identityRow) error {
		return r.Scan(&row.ID, &row.Email)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Email
	}
	return out, nil
}

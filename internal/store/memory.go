// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cohortlens/internal/config"
	"github.com/tomtom215/cohortlens/internal/models"
)

// Fixture is the full record set held by a MemoryStore. It is also the JSON
// layout of a fixture file.
type Fixture struct {
	Enrollments     []models.Enrollment     `json:"enrollments"`
	Courses         []models.Course         `json:"courses"`
	Modules         []models.Module         `json:"modules"`
	Lessons         []models.Lesson         `json:"lessons"`
	LessonProgress  []models.LessonProgress `json:"lesson_progress"`
	Profiles        []models.Profile        `json:"profiles"`
	SurveyResponses []models.SurveyResponse `json:"survey_responses"`
	MetricSnapshots []models.MetricSnapshot `json:"metric_snapshots"`
	Organizations   []models.Organization   `json:"organizations"`
	Partnerships    []models.Partnership    `json:"partnerships"`
	// Identities maps user id to email.
	Identities map[string]string `json:"identities"`
}

// LoadFixture reads a Fixture from a JSON file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// MemoryStore serves rows from an in-process Fixture. It backs tests and
// local demos.
type MemoryStore struct {
	mu      sync.RWMutex
	fixture Fixture
	closed  bool
}

// NewMemoryStore returns a store over f. A nil fixture yields an empty store.
func NewMemoryStore(f *Fixture) *MemoryStore {
	s := &MemoryStore{}
	if f != nil {
		s.fixture = *f
	}
	return s
}

// OpenMemory loads cfg.FixturePath, or returns an empty store when unset.
func OpenMemory(cfg *config.StoreConfig) (*MemoryStore, error) {
	if cfg.FixturePath == "" {
		return NewMemoryStore(nil), nil
	}
	f, err := LoadFixture(cfg.FixturePath)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(f), nil
}

// Replace swaps the whole record set.
func (s *MemoryStore) Replace(f *Fixture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixture = Fixture{}
	if f != nil {
		s.fixture = *f
	}
}

// Driver implements RecordStore.
func (s *MemoryStore) Driver() string { return config.DriverMemory }

// Ping implements RecordStore.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("memory store is closed")
	}
	return ctx.Err()
}

// Close implements RecordStore.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// selectRows applies q to rows. Column values are read from each row's
// JSON encoding so filters and ordering use the same names as the SQL
// backends.
func selectRows[T any](ctx context.Context, s *MemoryStore, entity Entity, q Query, pick func(*Fixture) []T) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.validate(entity); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rows := pick(&s.fixture)
	s.mu.RUnlock()

	type keyed struct {
		row  T
		cols map[string]json.RawMessage
	}
	selected := make([]keyed, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s row: %w", entity, err)
		}
		var cols map[string]json.RawMessage
		if err := json.Unmarshal(data, &cols); err != nil {
			return nil, fmt.Errorf("failed to decode %s row: %w", entity, err)
		}
		if matchesFilters(cols, q.Filters) {
			selected = append(selected, keyed{row: row, cols: cols})
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(selected, func(i, j int) bool {
			ci, cj := selected[i].cols[q.OrderBy], selected[j].cols[q.OrderBy]
			if isNullColumn(ci) || isNullColumn(cj) {
				// NULLs sort last in both directions, as on the SQL backends.
				return !isNullColumn(ci)
			}
			a, b := columnText(ci), columnText(cj)
			if q.Descending {
				return compareColumn(b, a)
			}
			return compareColumn(a, b)
		})
	}
	if q.Limit > 0 && len(selected) > q.Limit {
		selected = selected[:q.Limit]
	}

	out := make([]T, len(selected))
	for i, k := range selected {
		out[i] = k.row
	}
	return out, nil
}

func matchesFilters(cols map[string]json.RawMessage, filters []Filter) bool {
	for _, f := range filters {
		v, ok := cols[f.Column]
		if !ok || bytes.Equal(v, []byte("null")) || columnText(v) != f.Value {
			return false
		}
	}
	return true
}

func isNullColumn(v json.RawMessage) bool {
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

// columnText renders a JSON value the way a CAST(... AS TEXT) would.
func columnText(v json.RawMessage) string {
	if isNullColumn(v) {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// compareColumn orders numerically when both sides are numbers.
func compareColumn(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return a < b
}

// Enrollments implements RecordStore.
func (s *MemoryStore) Enrollments(ctx context.Context, q Query) ([]models.Enrollment, error) {
	return selectRows(ctx, s, EntityEnrollments, q, func(f *Fixture) []models.Enrollment { return f.Enrollments })
}

// Courses implements RecordStore.
func (s *MemoryStore) Courses(ctx context.Context, q Query) ([]models.Course, error) {
	return selectRows(ctx, s, EntityCourses, q, func(f *Fixture) []models.Course { return f.Courses })
}

// Modules implements RecordStore.
func (s *MemoryStore) Modules(ctx context.Context, q Query) ([]models.Module, error) {
	return selectRows(ctx, s, EntityModules, q, func(f *Fixture) []models.Module { return f.Modules })
}

// Lessons implements RecordStore.
func (s *MemoryStore) Lessons(ctx context.Context, q Query) ([]models.Lesson, error) {
	return selectRows(ctx, s, EntityLessons, q, func(f *Fixture) []models.Lesson { return f.Lessons })
}

// LessonProgress implements RecordStore.
func (s *MemoryStore) LessonProgress(ctx context.Context, q Query) ([]models.LessonProgress, error) {
	return selectRows(ctx, s, EntityLessonProgress, q, func(f *Fixture) []models.LessonProgress { return f.LessonProgress })
}

// Profiles implements RecordStore.
func (s *MemoryStore) Profiles(ctx context.Context, q Query) ([]models.Profile, error) {
	return selectRows(ctx, s, EntityProfiles, q, func(f *Fixture) []models.Profile { return f.Profiles })
}

// SurveyResponses implements RecordStore.
func (s *MemoryStore) SurveyResponses(ctx context.Context, q Query) ([]models.SurveyResponse, error) {
	return selectRows(ctx, s, EntitySurveyResponses, q, func(f *Fixture) []models.SurveyResponse { return f.SurveyResponses })
}

// MetricSnapshots implements RecordStore.
func (s *MemoryStore) MetricSnapshots(ctx context.Context, q Query) ([]models.MetricSnapshot, error) {
	return selectRows(ctx, s, EntityMetricSnapshots, q, func(f *Fixture) []models.MetricSnapshot { return f.MetricSnapshots })
}

// Organizations implements RecordStore.
func (s *MemoryStore) Organizations(ctx context.Context, q Query) ([]models.Organization, error) {
	return selectRows(ctx, s, EntityOrganizations, q, func(f *Fixture) []models.Organization { return f.Organizations })
}

// Partnerships implements RecordStore.
func (s *MemoryStore) Partnerships(ctx context.Context, q Query) ([]models.Partnership, error) {
	return selectRows(ctx, s, EntityPartnerships, q, func(f *Fixture) []models.Partnership { return f.Partnerships })
}

// Emails implements IdentityDirectory. Order is unspecified when limit
// truncates.
func (s *MemoryStore) Emails(ctx context.Context, limit int) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.fixture.Identities))
	for id, email := range s.fixture.Identities {
		if limit > 0 && len(out) >= limit {
			break
		}
		out[id] = email
	}
	return out, nil
}

// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cohortlens/internal/analytics"
	"github.com/tomtom215/cohortlens/internal/config"
	"github.com/tomtom215/cohortlens/internal/ingest"
	"github.com/tomtom215/cohortlens/internal/models"
	"github.com/tomtom215/cohortlens/internal/store"
)

// fixedNow is a Saturday.
var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) models.OptTime {
	return models.NewOptTime(fixedNow.AddDate(0, 0, -n))
}

func testFixture() *store.Fixture {
	return &store.Fixture{
		Courses: []models.Course{
			{ID: "c1", Title: "Classroom Management", IsPublished: true},
			{ID: "c2", Title: "Assessment Design", IsPublished: true},
			{ID: "c3", Title: "Draft Course", IsPublished: false},
		},
		Modules: []models.Module{
			{ID: "m1", CourseID: "c1", Title: "Routines", OrderIndex: 1},
		},
		Lessons: []models.Lesson{
			{ID: "l1", ModuleID: "m1", Title: "Morning routines", OrderIndex: 1},
		},
		Enrollments: []models.Enrollment{
			{ID: "e1", UserID: "u1", CourseID: "c1", Status: models.EnrollmentCompleted,
				ProgressPercentage: models.NewOptFloat(100), EnrolledAt: daysAgo(40), CompletedAt: daysAgo(10)},
			{ID: "e2", UserID: "u2", CourseID: "c1", Status: "active",
				ProgressPercentage: models.NewOptFloat(40), EnrolledAt: daysAgo(20)},
			{ID: "e3", UserID: "u1", CourseID: "c2", Status: "active",
				ProgressPercentage: models.NewOptFloat(0), EnrolledAt: daysAgo(5)},
			{ID: "e4", UserID: "qa", CourseID: "c2", Status: "active",
				ProgressPercentage: models.NewOptFloat(10), EnrolledAt: daysAgo(3)},
		},
		LessonProgress: []models.LessonProgress{
			{ID: "p1", UserID: "u1", LessonID: "l1", CourseID: "c1", CompletedAt: daysAgo(12)},
		},
		Profiles: []models.Profile{
			{ID: "u1", DisplayName: "Ana", Onboarding: models.Onboarding{SchoolName: "Lincoln"}},
			{ID: "u2", DisplayName: "Ben", Onboarding: models.Onboarding{SchoolName: "Lincoln"}},
			{ID: "qa", DisplayName: "QA", Onboarding: models.Onboarding{SchoolName: "Lincoln"}},
		},
		Identities: map[string]string{
			"u1": "ana@lincoln.k12.us",
			"u2": "ben@lincoln.k12.us",
			"qa": "qa+test@lincoln.k12.us",
		},
	}
}

// faultyStore fails or blocks on Enrollments and delegates everything else.
type faultyStore struct {
	*store.MemoryStore
	err   error
	block bool
}

func (s *faultyStore) Enrollments(ctx context.Context, q store.Query) ([]models.Enrollment, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, s.err
}

type stubProbe struct {
	healthy bool
	at      time.Time
	err     error
}

func (p *stubProbe) Healthy() bool { return p.healthy }
func (p *stubProbe) LastCheck() (time.Time, error) { return p.at, p.err }

type routerOptions struct {
	records store.RecordStore
	probe   StoreProbe
	timeout time.Duration
	mw      *ChiMiddlewareConfig
}

func newTestRouter(t *testing.T, opts routerOptions) http.Handler {
	t.Helper()
	mem := store.NewMemoryStore(testFixture())
	var records store.RecordStore = mem
	if opts.records != nil {
		records = opts.records
	}
	engine := analytics.NewEngine(
		ingest.NewFetcher(records, mem, 0, 0),
		ingest.NewCleaner(nil),
		analytics.WithClock(func() time.Time { return fixedNow }),
	)
	handler := NewHandler(engine, opts.probe, &config.AnalyticsConfig{RequestTimeout: opts.timeout})

	mwCfg := opts.mw
	if mwCfg == nil {
		mwCfg = DefaultChiMiddlewareConfig()
		mwCfg.RateLimitDisabled = true
	}
	return NewRouter(handler, NewChiMiddleware(mwCfg)).SetupChi()
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func doGet(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s response: %v (body %q)", target, err, rec.Body.String())
	}
	return rec, env
}

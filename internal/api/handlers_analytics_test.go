// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/cohortlens/internal/models"
	"github.com/tomtom215/cohortlens/internal/store"
)

func TestAnalyticsCompletion_Success(t *testing.T) {
	h := newTestRouter(t, routerOptions{})

	rec, env := doGet(t, h, "/api/v1/analytics/completion")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Status != "success" {
		t.Errorf("status field = %q, want success", env.Status)
	}
	if env.Error != nil {
		t.Errorf("unexpected error %+v", env.Error)
	}
	if env.Metadata.Timestamp.IsZero() {
		t.Error("metadata timestamp not set")
	}

	var data models.CompletionAnalytics
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Courses) != 2 {
		t.Fatalf("courses = %d, want 2 published", len(data.Courses))
	}
	if data.Courses[0].Title != "Assessment Design" {
		t.Errorf("first course = %q, want title order", data.Courses[0].Title)
	}
	if data.SelectedCourseID == nil || *data.SelectedCourseID != "c2" {
		t.Errorf("selectedCourseId = %v, want c2", data.SelectedCourseID)
	}
}

func TestAnalyticsCompletion_CourseSelection(t *testing.T) {
	h := newTestRouter(t, routerOptions{})

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "published course", query: "course_id=c1", want: "c1"},
		{name: "unpublished falls back", query: "course_id=c3", want: "c2"},
		{name: "unknown falls back", query: "course_id=nope", want: "c2"},
		{name: "invalid falls back", query: "course_id=%3Bdrop", want: "c2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doGet(t, h, "/api/v1/analytics/completion?"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var data models.CompletionAnalytics
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if data.SelectedCourseID == nil || *data.SelectedCourseID != tt.want {
				t.Errorf("selectedCourseId = %v, want %s", data.SelectedCourseID, tt.want)
			}
		})
	}
}

func TestAnalytics_DateRangeMetadata(t *testing.T) {
	h := newTestRouter(t, routerOptions{})

	tests := []struct {
		name     string
		query    string
		wantFrom string
		wantTo   string
	}{
		{name: "unrestricted", query: "", wantFrom: "", wantTo: ""},
		{name: "both bounds", query: "date_from=2024-01-01&date_to=2024-06-30", wantFrom: "2024-01-01", wantTo: "2024-06-30"},
		{name: "open start", query: "date_to=2024-03-31", wantFrom: "", wantTo: "2024-03-31"},
		{name: "malformed bound dropped", query: "date_from=yesterday&date_to=2024-03-31", wantFrom: "", wantTo: "2024-03-31"},
		{name: "inverted range unrestricted", query: "date_from=2024-06-30&date_to=2024-01-01", wantFrom: "", wantTo: ""},
		{name: "single day", query: "date_from=2024-06-01&date_to=2024-06-01", wantFrom: "2024-06-01", wantTo: "2024-06-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doGet(t, h, "/api/v1/analytics/engagement?"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if env.Metadata.DateFrom != tt.wantFrom || env.Metadata.DateTo != tt.wantTo {
				t.Errorf("metadata range = [%q, %q], want [%q, %q]",
					env.Metadata.DateFrom, env.Metadata.DateTo, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestAnalytics_GroupingKeys(t *testing.T) {
	h := newTestRouter(t, routerOptions{})

	tests := []struct {
		path string
		keys []string
	}{
		{
			path: "/api/v1/analytics/completion",
			keys: []string{"completionBySchool", "timeToComplete", "coursePopularity", "dropoffFunnel", "courses", "selectedCourseId"},
		},
		{
			path: "/api/v1/analytics/engagement",
			keys: []string{"activeVsDormant", "dormantUsersList", "peakUsageHeatmap", "engagementByPartnership", "returnRate", "totalUsers"},
		},
		{
			path: "/api/v1/analytics/outcomes",
			keys: []string{"stressLevelTrends", "planningTimeImprovements", "strategyImplementation", "schoolImpactCards", "dataStatus"},
		},
		{
			path: "/api/v1/analytics/summary",
			keys: []string{"completion", "engagement", "outcomes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, env := doGet(t, h, tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var data map[string]json.RawMessage
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			for _, key := range tt.keys {
				if _, ok := data[key]; !ok {
					t.Errorf("data missing %q", key)
				}
			}
		})
	}
}

func TestAnalyticsEngagement_ExcludesTestAccounts(t *testing.T) {
	h := newTestRouter(t, routerOptions{})

	_, env := doGet(t, h, "/api/v1/analytics/engagement")

	var data models.EngagementAnalytics
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.TotalUsers != 2 {
		t.Errorf("totalUsers = %d, want 2 after excluding the test account", data.TotalUsers)
	}
	if strings.Contains(string(env.Data), "qa+test") {
		t.Error("test account email leaked into the payload")
	}
}

func TestAnalytics_StoreErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not configured",
			err:        fmt.Errorf("postgrest: %w", store.ErrNotConfigured),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeStoreNotConfigured,
		},
		{
			name:       "circuit open",
			err:        fmt.Errorf("record-store-postgrest: %w", gobreaker.ErrOpenState),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeServiceUnavailable,
		},
		{
			name:       "half-open saturated",
			err:        fmt.Errorf("record-store-postgrest: %w", gobreaker.ErrTooManyRequests),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeServiceUnavailable,
		},
		{
			name:       "backend failure",
			err:        errors.New("failed to fetch enrollments: status 500: upstream secret detail"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeStoreError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faulty := &faultyStore{MemoryStore: store.NewMemoryStore(testFixture()), err: tt.err}
			h := newTestRouter(t, routerOptions{records: faulty})

			for _, path := range []string{"/api/v1/analytics/completion", "/api/v1/analytics/summary"} {
				rec, env := doGet(t, h, path)
				if rec.Code != tt.wantStatus {
					t.Errorf("%s status = %d, want %d", path, rec.Code, tt.wantStatus)
				}
				if env.Status != "error" || env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("%s error = %+v, want code %s", path, env.Error, tt.wantCode)
				}
				if string(env.Data) != "null" {
					t.Errorf("%s data = %s, want null on failure", path, env.Data)
				}
				if strings.Contains(rec.Body.String(), "secret") {
					t.Errorf("%s leaked store error detail", path)
				}
			}
		})
	}
}

func TestAnalytics_RequestTimeout(t *testing.T) {
	faulty := &faultyStore{MemoryStore: store.NewMemoryStore(testFixture()), block: true}
	h := newTestRouter(t, routerOptions{records: faulty, timeout: 20 * time.Millisecond})

	rec, env := doGet(t, h, "/api/v1/analytics/outcomes")
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeTimeout {
		t.Errorf("error = %+v, want %s", env.Error, ErrCodeTimeout)
	}
}

func TestAnalytics_ResponseHeaders(t *testing.T) {
	h := newTestRouter(t, routerOptions{})

	rec, _ := doGet(t, h, "/api/v1/analytics/outcomes")

	want := map[string]string{
		"Content-Type":           "application/json",
		"Cache-Control":          "no-store",
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
	if etag := rec.Header().Get("ETag"); !strings.HasPrefix(etag, `"`) {
		t.Errorf("ETag = %q, want a quoted entity tag", etag)
	}
}

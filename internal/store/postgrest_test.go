// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/cohortlens/internal/config"
)

func newTestPostgREST(t *testing.T, handler http.HandlerFunc) *PostgRESTStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewPostgRESTStore(&config.StoreConfig{
		URL:           server.URL + "/rest/v1/",
		APIKey:        "test-key",
		Schema:        "public",
		IdentityTable: "user_emails",
		Timeout:       5 * time.Second,
		MaxRetries:    3,
	})
	s.retryBaseDelay = time.Millisecond
	return s
}

func TestPostgRESTStore_RequestShape(t *testing.T) {
	var gotPath, gotQuery string
	var gotHeaders http.Header
	s := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotHeaders = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"e1","user_id":"u1","course_id":"c1","status":"completed",
			"progress_percentage":"100","enrolled_at":"2024-01-02T10:00:00Z","completed_at":null}]`))
	})

	q := Query{Limit: 500}.Where("course_id", "c1").Order("created_at", true)
	rows, err := s.Enrollments(context.Background(), q)
	if err != nil {
		t.Fatalf("Enrollments() error = %v", err)
	}

	if gotPath != "/rest/v1/enrollments" {
		t.Errorf("path = %q, want /rest/v1/enrollments", gotPath)
	}
	for _, want := range []string{"course_id=eq.c1", "order=created_at.desc.nullslast", "limit=500", "select=id%2Cuser_id"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if gotHeaders.Get("apikey") != "test-key" {
		t.Errorf("apikey header = %q", gotHeaders.Get("apikey"))
	}
	if gotHeaders.Get("Authorization") != "Bearer test-key" {
		t.Errorf("Authorization header = %q", gotHeaders.Get("Authorization"))
	}
	if gotHeaders.Get("Accept-Profile") != "public" {
		t.Errorf("Accept-Profile header = %q", gotHeaders.Get("Accept-Profile"))
	}

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	e := rows[0]
	if !e.IsCompleted() || !e.ProgressPercentage.Valid || e.ProgressPercentage.Float64 != 100 {
		t.Errorf("unexpected enrollment %+v", e)
	}
	if !e.EnrolledAt.Valid || e.CompletedAt.Valid {
		t.Errorf("timestamps decoded wrong: enrolled=%v completed=%v", e.EnrolledAt, e.CompletedAt)
	}
}

func TestPostgRESTStore_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	s := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"c1","title":"Intro","category":"core","is_published":true}]`))
	})

	rows, err := s.Courses(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Courses() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "Intro" {
		t.Errorf("unexpected rows %+v", rows)
	}
	if calls.Load() != 3 {
		t.Errorf("server saw %d calls, want 3", calls.Load())
	}
}

func TestPostgRESTStore_RateLimitExhausted(t *testing.T) {
	s := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := s.Courses(context.Background(), Query{})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestPostgRESTStore_ErrorStatus(t *testing.T) {
	s := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"column does not exist"}`))
	})

	_, err := s.Profiles(context.Background(), Query{})
	if err == nil || !strings.Contains(err.Error(), "column does not exist") {
		t.Fatalf("expected error carrying response body, got %v", err)
	}
}

func TestPostgRESTStore_NotConfigured(t *testing.T) {
	s := NewPostgRESTStore(&config.StoreConfig{})

	if _, err := s.Enrollments(context.Background(), Query{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Enrollments() error = %v, want ErrNotConfigured", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Ping() error = %v, want ErrNotConfigured", err)
	}
}

func TestPostgRESTStore_UnknownColumn(t *testing.T) {
	s := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not be sent")
	})

	_, err := s.Courses(context.Background(), Query{}.Where("title; drop", "x"))
	if !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("error = %v, want ErrUnknownColumn", err)
	}
}

func TestPostgRESTStore_Emails(t *testing.T) {
	var gotPath string
	s := newTestPostgREST(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[{"id":"u1","email":"a@school.org"},{"id":"u2","email":"b@example.com"}]`))
	})

	emails, err := s.Emails(context.Background(), 100)
	if err != nil {
		t.Fatalf("Emails() error = %v", err)
	}
	if gotPath != "/rest/v1/user_emails" {
		t.Errorf("path = %q, want identity table", gotPath)
	}
	if emails["u2"] != "b@example.com" || len(emails) != 2 {
		t.Errorf("unexpected emails %v", emails)
	}
}

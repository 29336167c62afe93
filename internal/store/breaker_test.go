// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package store

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cohortlens/internal/config"
	"github.com/tomtom215/cohortlens/internal/logging"
	"github.com/tomtom215/cohortlens/internal/metrics"
	"github.com/tomtom215/cohortlens/internal/models"
)

// flakyStore fails Courses while failing is set.
type flakyStore struct {
	*MemoryStore
	failing bool
	err     error
	calls   int
}

func (f *flakyStore) Courses(ctx context.Context, q Query) ([]models.Course, error) {
	f.calls++
	if f.failing {
		return nil, f.err
	}
	return f.MemoryStore.Courses(ctx, q)
}

func testBreakerSettings() BreakerSettings {
	s := DefaultBreakerSettings()
	s.MinRequests = 4
	s.Timeout = time.Hour
	return s
}

func TestBreakerStore_OpensAfterFailures(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(testFixture()), failing: true, err: errors.New("connection refused")}
	b := NewBreakerStore(inner, testBreakerSettings())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := b.Courses(ctx, Query{}); err == nil {
			t.Fatalf("call %d: expected failure", i)
		}
	}
	if b.State() != "open" {
		t.Fatalf("State() = %q, want open", b.State())
	}

	calls := inner.calls
	_, err := b.Courses(ctx, Query{})
	if !IsUnavailable(err) {
		t.Errorf("error = %v, want unavailable", err)
	}
	if inner.calls != calls {
		t.Error("open circuit should not reach the backend")
	}
}

func TestBreakerStore_NotConfiguredDoesNotTrip(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(nil), failing: true, err: ErrNotConfigured}
	b := NewBreakerStore(inner, testBreakerSettings())

	for i := 0; i < 10; i++ {
		_, err := b.Courses(context.Background(), Query{})
		if !errors.Is(err, ErrNotConfigured) {
			t.Fatalf("error = %v, want ErrNotConfigured", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("State() = %q, want closed", b.State())
	}
}

func TestBreakerStore_RecordsFetchMetrics(t *testing.T) {
	b := NewBreakerStore(NewMemoryStore(testFixture()), testBreakerSettings())
	before := testutil.ToFloat64(metrics.StoreRowsFetched.WithLabelValues("memory", "courses"))

	rows, err := b.Courses(context.Background(), Query{})
	if err != nil {
		t.Fatal(err)
	}
	after := testutil.ToFloat64(metrics.StoreRowsFetched.WithLabelValues("memory", "courses"))
	if after-before != float64(len(rows)) {
		t.Errorf("rows metric grew by %v, want %d", after-before, len(rows))
	}
}

func TestBreakerStore_EmptyResult(t *testing.T) {
	b := NewBreakerStore(NewMemoryStore(nil), testBreakerSettings())

	rows, err := b.Partnerships(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Partnerships() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
	emails, err := b.Emails(context.Background(), 10)
	if err != nil || len(emails) != 0 {
		t.Errorf("Emails() = %v, %v", emails, err)
	}
}

func TestOpen_LogsStoreOpenedOnce(t *testing.T) {
	prev := logging.Logger()
	t.Cleanup(func() { logging.SetLogger(prev) })

	var buf bytes.Buffer
	logging.SetLogger(zerolog.New(&buf))

	s, err := Open(&config.StoreConfig{Driver: config.DriverMemory})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if got := strings.Count(buf.String(), "Record store opened"); got != 1 {
		t.Errorf("store open logged %d times, want 1:\n%s", got, buf.String())
	}
	if !strings.Contains(buf.String(), `"driver":"memory"`) {
		t.Errorf("missing driver field in %s", buf.String())
	}
}

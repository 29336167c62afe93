// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/cohortlens/internal/ingest"
	"github.com/tomtom215/cohortlens/internal/models"
	"github.com/tomtom215/cohortlens/internal/store"
)

// fixedNow is a Saturday.
var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func opt(t time.Time) models.OptTime { return models.NewOptTime(t) }

func num(v float64) models.OptFloat { return models.NewOptFloat(v) }

func daysAgo(n int) time.Time { return fixedNow.Add(-time.Duration(n) * 24 * time.Hour) }

func strPtr(s string) *string { return &s }

func newTestEngine(f *store.Fixture, domains ...string) *Engine {
	mem := store.NewMemoryStore(f)
	return NewEngine(ingest.NewFetcher(mem, mem, 0, 0), ingest.NewCleaner(domains), WithClock(fixedClock))
}

// analyze runs every grouping over snap with the fixed clock.
func analyze(t *testing.T, snap *ingest.Snapshot, courseID string) *models.AnalyticsSummary {
	t.Helper()
	e := NewEngine(nil, nil, WithClock(fixedClock))
	res, err := e.Analyze(context.Background(), snap, Request{CourseID: courseID}, GroupAll)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return res
}

func assertFloatPtr(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s = nil, want %v", name, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", name, *got, want)
	}
}

func assertNil(t *testing.T, name string, got *float64) {
	t.Helper()
	if got != nil {
		t.Errorf("%s = %v, want nil", name, *got)
	}
}

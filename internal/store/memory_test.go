// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/cohortlens/internal/config"
	"github.com/tomtom215/cohortlens/internal/models"
)

func testFixture() *Fixture {
	return &Fixture{
		Courses: []models.Course{
			{ID: "c2", Title: "Behavior", IsPublished: true},
			{ID: "c1", Title: "Arrival", IsPublished: true},
			{ID: "c3", Title: "Draft", IsPublished: false},
		},
		Modules: []models.Module{
			{ID: "m2", CourseID: "c1", OrderIndex: 10},
			{ID: "m1", CourseID: "c1", OrderIndex: 2},
			{ID: "m3", CourseID: "c2", OrderIndex: 1},
		},
		Identities: map[string]string{"u1": "a@school.org", "u2": "b@school.org"},
	}
}

func TestMemoryStore_FilterOrderLimit(t *testing.T) {
	s := NewMemoryStore(testFixture())
	ctx := context.Background()

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"all", Query{}, []string{"m2", "m1", "m3"}},
		{"filter", Query{}.Where("course_id", "c1"), []string{"m2", "m1"}},
		{"numeric order", Query{}.Where("course_id", "c1").Order("order_index", false), []string{"m1", "m2"}},
		{"descending", Query{}.Order("order_index", true), []string{"m2", "m1", "m3"}},
		{"limit", Query{Limit: 1}.Order("id", false), []string{"m1"}},
		{"no match", Query{}.Where("course_id", "zzz"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.Modules(ctx, tt.query)
			if err != nil {
				t.Fatalf("Modules() error = %v", err)
			}
			var got []string
			for _, m := range rows {
				got = append(got, m.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestMemoryStore_BoolFilter(t *testing.T) {
	s := NewMemoryStore(testFixture())

	rows, err := s.Courses(context.Background(), Query{}.Where("is_published", "true").Order("title", false))
	if err != nil {
		t.Fatalf("Courses() error = %v", err)
	}
	if len(rows) != 2 || rows[0].Title != "Arrival" {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestMemoryStore_UnknownColumn(t *testing.T) {
	s := NewMemoryStore(testFixture())
	if _, err := s.Courses(context.Background(), Query{}.Order("nope", false)); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("error = %v, want ErrUnknownColumn", err)
	}
}

func TestMemoryStore_EmailsLimit(t *testing.T) {
	s := NewMemoryStore(testFixture())

	all, err := s.Emails(context.Background(), 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("Emails(0) = %v, %v", all, err)
	}
	one, err := s.Emails(context.Background(), 1)
	if err != nil || len(one) != 1 {
		t.Fatalf("Emails(1) = %v, %v", one, err)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore(testFixture())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Courses(ctx, Query{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestMemoryStore_CloseFailsPing(t *testing.T) {
	s := NewMemoryStore(nil)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	_ = s.Close()
	if err := s.Ping(context.Background()); err == nil {
		t.Error("expected Ping() to fail after Close()")
	}
}

func TestOpenMemory_Fixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	doc := `{
		"profiles": [{"id": "u1", "display_name": "Ada", "onboarding_data": {"school_name": "Lincoln"}}],
		"survey_responses": [{"id": "s1", "organization_id": "o1", "survey_type": "baseline", "stress_level": "7"}],
		"identities": {"u1": "ada@lincoln.edu"}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := OpenMemory(&config.StoreConfig{FixturePath: path})
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}

	profiles, err := s.Profiles(context.Background(), Query{})
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 || profiles[0].School() != "Lincoln" {
		t.Errorf("unexpected profiles %+v", profiles)
	}

	surveys, err := s.SurveyResponses(context.Background(), Query{}.Where("survey_type", "baseline"))
	if err != nil {
		t.Fatal(err)
	}
	if len(surveys) != 1 || surveys[0].StressLevel.Float64 != 7 {
		t.Errorf("unexpected surveys %+v", surveys)
	}
}

func TestOpenMemory_MissingFixture(t *testing.T) {
	_, err := OpenMemory(&config.StoreConfig{FixturePath: filepath.Join(t.TempDir(), "missing.json")})
	if err == nil {
		t.Error("expected error for missing fixture")
	}
}

func TestMemoryStore_NullsSortLast(t *testing.T) {
	s := NewMemoryStore(&Fixture{
		LessonProgress: []models.LessonProgress{
			{ID: "p1", UserID: "u1"},
			{ID: "p2", UserID: "u1", CompletedAt: models.ParseOptTime("2024-03-01T10:00:00Z")},
			{ID: "p3", UserID: "u2"},
			{ID: "p4", UserID: "u2", CompletedAt: models.ParseOptTime("2024-03-05T10:00:00Z")},
		},
	})
	ctx := context.Background()

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"capped newest first", Query{Limit: 2}.Order("completed_at", true), []string{"p4", "p2"}},
		{"descending", Query{}.Order("completed_at", true), []string{"p4", "p2", "p1", "p3"}},
		{"ascending", Query{}.Order("completed_at", false), []string{"p2", "p4", "p1", "p3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.LessonProgress(ctx, tt.query)
			if err != nil {
				t.Fatalf("LessonProgress() error = %v", err)
			}
			var got []string
			for _, p := range rows {
				got = append(got, p.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

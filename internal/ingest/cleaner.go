// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package ingest

import (
	"strings"
	"time"

	"github.com/tomtom215/cohortlens/internal/metrics"
	"github.com/tomtom215/cohortlens/internal/models"
)

// testAccountMarkers mark an email as a test account when contained in it.
var testAccountMarkers = []string{"test", "demo", "example.com"}

// Snapshot is the cleaned, read-only input of every analytics stage.
type Snapshot struct {
	// Enrollments are cleaned and date filtered.
	Enrollments []models.Enrollment
	// AllEnrollments are cleaned but not date filtered. The rolling
	// popularity trend is relative to now, not to the requested range.
	AllEnrollments  []models.Enrollment
	Courses         []models.Course
	Modules         []models.Module
	Lessons         []models.Lesson
	LessonProgress  []models.LessonProgress
	Profiles        []models.Profile
	SurveyResponses []models.SurveyResponse
	MetricSnapshots []models.MetricSnapshot
	Organizations   []models.Organization
	Partnerships    []models.Partnership
	Emails          map[string]string

	Range         DateRange
	ExcludedUsers int
}

// Cleaner applies test-account exclusion and date filtering.
type Cleaner struct {
	markers         *markerMatcher
	internalDomains []string
}

// NewCleaner returns a Cleaner that also excludes emails ending with any of
// internalDomains.
func NewCleaner(internalDomains []string) *Cleaner {
	domains := make([]string, 0, len(internalDomains))
	for _, d := range internalDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return &Cleaner{markers: newMarkerMatcher(testAccountMarkers), internalDomains: domains}
}

// IsTestAccount reports whether email belongs to a test or internal account.
func (c *Cleaner) IsTestAccount(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if c.markers.containsAny(email) {
		return true
	}
	for _, suffix := range c.internalDomains {
		if strings.HasSuffix(email, suffix) {
			return true
		}
	}
	return false
}

// Clean returns a Snapshot of raw without test accounts and, when r is not
// zero, without rows whose timestamp falls outside r. raw is not modified.
func (c *Cleaner) Clean(raw *RawSnapshot, r DateRange) *Snapshot {
	start := time.Now()
	defer func() { metrics.RecordStageDuration("clean", time.Since(start)) }()

	excluded := make(map[string]struct{})
	for id, email := range raw.Emails {
		if c.IsTestAccount(email) {
			excluded[id] = struct{}{}
		}
	}
	keepUser := func(id string) bool {
		_, drop := excluded[id]
		return !drop
	}
	metrics.AnalyticsExcludedUsers.Add(float64(len(excluded)))

	snap := &Snapshot{
		Courses:       raw.Courses,
		Modules:       raw.Modules,
		Lessons:       raw.Lessons,
		Organizations: raw.Organizations,
		Partnerships:  raw.Partnerships,
		Emails:        raw.Emails,
		Range:         r,
		ExcludedUsers: len(excluded),
	}

	snap.AllEnrollments = filter(raw.Enrollments, func(e *models.Enrollment) bool {
		return keepUser(e.UserID)
	})
	if r.IsZero() {
		// Snapshots are read-only, so the unrestricted view can be shared.
		snap.Enrollments = snap.AllEnrollments
	} else {
		snap.Enrollments = filter(snap.AllEnrollments, func(e *models.Enrollment) bool {
			return r.Contains(e.StartedAt())
		})
	}
	snap.LessonProgress = filter(raw.LessonProgress, func(p *models.LessonProgress) bool {
		return keepUser(p.UserID) && r.Contains(p.CompletedAt)
	})
	snap.Profiles = filter(raw.Profiles, func(p *models.Profile) bool {
		return keepUser(p.ID)
	})
	snap.SurveyResponses = filter(raw.SurveyResponses, func(s *models.SurveyResponse) bool {
		if s.StaffMemberID != nil && !keepUser(*s.StaffMemberID) {
			return false
		}
		return r.Contains(s.SubmittedAt)
	})
	snap.MetricSnapshots = filter(raw.MetricSnapshots, func(m *models.MetricSnapshot) bool {
		return r.Contains(m.SnapshotDate)
	})
	return snap
}

// filter returns the rows for which keep is true in a new slice. The result
// is never nil so empty sets encode as [].
func filter[T any](rows []T, keep func(*T) bool) []T {
	out := make([]T, 0, len(rows))
	for i := range rows {
		if keep(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

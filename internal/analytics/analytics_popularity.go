// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/cohortlens/internal/models"
)

// trendBucketSpan is the width of one rolling trend bucket.
const trendBucketSpan = 30 * 24 * time.Hour

// trendBucket maps a start time to its slot in the rolling trend, oldest
// first. ok is false outside the window.
func trendBucket(start, now time.Time) (int, bool) {
	monthsAgo := int(math.Floor(float64(now.Sub(start)) / float64(trendBucketSpan)))
	if monthsAgo < 0 || monthsAgo >= models.TrendMonths {
		return 0, false
	}
	return models.TrendMonths - 1 - monthsAgo, true
}

// coursePopularity reports every published course, including those with no
// enrollments. Totals use the date-filtered enrollments; the trend uses all
// cleaned enrollments relative to now.
func coursePopularity(idx *index, now time.Time) []models.CoursePopularity {
	published := idx.publishedCourses()
	out := make([]models.CoursePopularity, len(published))
	pos := make(map[string]int, len(published))
	for i, c := range published {
		out[i] = models.CoursePopularity{CourseID: c.ID, Title: c.Title, Category: c.Category}
		pos[c.ID] = i
	}

	for i := range idx.snap.Enrollments {
		e := &idx.snap.Enrollments[i]
		p, ok := pos[e.CourseID]
		if !ok {
			continue
		}
		out[p].Enrolled++
		switch {
		case e.IsCompleted():
			out[p].Completed++
		case e.IsInProgress():
			out[p].Active++
		}
	}

	for i := range idx.snap.AllEnrollments {
		e := &idx.snap.AllEnrollments[i]
		p, ok := pos[e.CourseID]
		start := e.StartedAt()
		if !ok || !start.Valid {
			continue
		}
		if b, ok := trendBucket(start.Time, now); ok {
			out[p].Trend[b]++
		}
	}

	for i := range out {
		out[i].CompletionRate = Percent(out[i].Completed, out[i].Enrolled)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Enrolled > out[j].Enrolled
	})
	return out
}

// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"math"
	"sort"

	"github.com/tomtom215/cohortlens/internal/models"
)

// Reporting thresholds for the completion tables.
const (
	minSchoolEnrollments   = 3
	maxSchoolsReported     = 20
	minCompletionsReported = 3
)

func sortCourses(courses []*models.Course) {
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Title != courses[j].Title {
			return courses[i].Title < courses[j].Title
		}
		return courses[i].ID < courses[j].ID
	})
}

// completionBySchool groups enrollments by (school, course). Schools with
// fewer than three enrollments are dropped; the rest are ranked by volume.
func completionBySchool(idx *index) []models.SchoolCompletion {
	type counts struct{ enrolled, completed int }
	bySchool := make(map[string]map[string]*counts)

	for i := range idx.snap.Enrollments {
		e := &idx.snap.Enrollments[i]
		school := idx.schoolOfUser(e.UserID)
		courses, ok := bySchool[school]
		if !ok {
			courses = make(map[string]*counts)
			bySchool[school] = courses
		}
		c, ok := courses[e.CourseID]
		if !ok {
			c = &counts{}
			courses[e.CourseID] = c
		}
		c.enrolled++
		if e.IsCompleted() {
			c.completed++
		}
	}

	out := make([]models.SchoolCompletion, 0, len(bySchool))
	for school, courses := range bySchool {
		sc := models.SchoolCompletion{
			School:  school,
			Courses: make([]models.CourseCompletion, 0, len(courses)),
		}
		for courseID, c := range courses {
			sc.TotalEnrolled += c.enrolled
			sc.TotalCompleted += c.completed
			sc.Courses = append(sc.Courses, models.CourseCompletion{
				CourseID:       courseID,
				CourseTitle:    idx.courseTitle(courseID),
				Enrolled:       c.enrolled,
				Completed:      c.completed,
				CompletionRate: Percent(c.completed, c.enrolled),
			})
		}
		if sc.TotalEnrolled < minSchoolEnrollments {
			continue
		}
		sc.CompletionRate = Percent(sc.TotalCompleted, sc.TotalEnrolled)
		sort.Slice(sc.Courses, func(i, j int) bool {
			a, b := sc.Courses[i], sc.Courses[j]
			if a.Enrolled != b.Enrolled {
				return a.Enrolled > b.Enrolled
			}
			return a.CourseTitle < b.CourseTitle
		})
		out = append(out, sc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalEnrolled != out[j].TotalEnrolled {
			return out[i].TotalEnrolled > out[j].TotalEnrolled
		}
		return out[i].School < out[j].School
	})
	if len(out) > maxSchoolsReported {
		out = out[:maxSchoolsReported]
	}
	return out
}

// daysToComplete is max(1, round(days)) between start and completion.
func daysToComplete(e *models.Enrollment) (int, bool) {
	start := e.StartedAt()
	if !e.IsCompleted() || !start.Valid || !e.CompletedAt.Valid {
		return 0, false
	}
	days := int(math.Round(e.CompletedAt.Time.Sub(start.Time).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days, true
}

// timeToComplete reports order statistics of completion time for courses
// with at least three timed completions, fastest median first.
func timeToComplete(idx *index) []models.TimeToComplete {
	byCourse := make(map[string][]float64)
	for i := range idx.snap.Enrollments {
		if days, ok := daysToComplete(&idx.snap.Enrollments[i]); ok {
			id := idx.snap.Enrollments[i].CourseID
			byCourse[id] = append(byCourse[id], float64(days))
		}
	}

	out := make([]models.TimeToComplete, 0, len(byCourse))
	for courseID, days := range byCourse {
		if len(days) < minCompletionsReported {
			continue
		}
		lo, hi := days[0], days[0]
		for _, d := range days[1:] {
			lo = math.Min(lo, d)
			hi = math.Max(hi, d)
		}
		out = append(out, models.TimeToComplete{
			CourseID:        courseID,
			CourseTitle:     idx.courseTitle(courseID),
			MedianDays:      Median(days),
			AvgDays:         Round1(Mean(days)),
			MinDays:         int(lo),
			MaxDays:         int(hi),
			CompletionCount: len(days),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MedianDays != out[j].MedianDays {
			return out[i].MedianDays < out[j].MedianDays
		}
		return out[i].CourseTitle < out[j].CourseTitle
	})
	return out
}

// courseOptions lists the published courses for the funnel selector and
// resolves the selected one: requested when published, else the first.
func courseOptions(idx *index, requested string) ([]models.CourseOption, *string) {
	published := idx.publishedCourses()
	options := make([]models.CourseOption, 0, len(published))
	var selected *string
	for _, c := range published {
		options = append(options, models.CourseOption{ID: c.ID, Title: c.Title})
		if requested != "" && c.ID == requested {
			id := c.ID
			selected = &id
		}
	}
	if selected == nil && len(published) > 0 {
		id := published[0].ID
		selected = &id
	}
	return options, selected
}

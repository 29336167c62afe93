// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"fmt"
	"sort"

	"github.com/tomtom215/cohortlens/internal/models"
)

// Fixed funnel stage names.
const (
	StageEnrolled        = "Enrolled"
	StageStarted         = "Started"
	StageCourseCompleted = "Course Completed"
)

// dropoffFunnel builds Enrolled -> Started -> one stage per module ->
// Course Completed for courseID. Module stages count enrolled users who
// completed every lesson of the module; modules without lessons are
// skipped. A course without enrollments yields an empty funnel.
func dropoffFunnel(idx *index, courseID string) []models.FunnelStage {
	stages := make([]models.FunnelStage, 0)
	if courseID == "" {
		return stages
	}

	enrolledUsers := make(map[string]struct{})
	enrollments, completed := 0, 0
	for i := range idx.snap.Enrollments {
		e := &idx.snap.Enrollments[i]
		if e.CourseID != courseID {
			continue
		}
		enrollments++
		enrolledUsers[e.UserID] = struct{}{}
		if e.IsCompleted() {
			completed++
		}
	}
	if enrollments == 0 {
		return stages
	}

	modules := courseModules(idx, courseID)
	lessonsByModule := make(map[string][]string, len(modules))
	inCourse := make(map[string]struct{})
	for i := range idx.snap.Lessons {
		l := &idx.snap.Lessons[i]
		lessonsByModule[l.ModuleID] = append(lessonsByModule[l.ModuleID], l.ID)
	}
	for _, m := range modules {
		for _, id := range lessonsByModule[m.ID] {
			inCourse[id] = struct{}{}
		}
	}

	// user -> completed lessons of this course
	done := make(map[string]map[string]struct{})
	for i := range idx.snap.LessonProgress {
		p := &idx.snap.LessonProgress[i]
		if !p.CompletedAt.Valid {
			continue
		}
		if _, ok := enrolledUsers[p.UserID]; !ok {
			continue
		}
		if _, ok := inCourse[p.LessonID]; !ok && p.CourseID != courseID {
			continue
		}
		lessons, ok := done[p.UserID]
		if !ok {
			lessons = make(map[string]struct{})
			done[p.UserID] = lessons
		}
		lessons[p.LessonID] = struct{}{}
	}

	add := func(name string, count int) {
		stages = append(stages, models.FunnelStage{
			Stage:      name,
			Count:      count,
			Percentage: Percent(count, enrollments),
		})
	}

	add(StageEnrolled, enrollments)
	add(StageStarted, len(done))
	for n, m := range modules {
		lessons := lessonsByModule[m.ID]
		if len(lessons) == 0 {
			continue
		}
		finished := 0
		for _, completedLessons := range done {
			if containsAll(completedLessons, lessons) {
				finished++
			}
		}
		name := m.Title
		if name == "" {
			name = fmt.Sprintf("Module %d", n+1)
		}
		add(name, finished)
	}
	add(StageCourseCompleted, completed)

	markBiggestDrop(stages)
	return stages
}

// courseModules returns the course's modules in module order.
func courseModules(idx *index, courseID string) []*models.Module {
	var modules []*models.Module
	for i := range idx.snap.Modules {
		if idx.snap.Modules[i].CourseID == courseID {
			modules = append(modules, &idx.snap.Modules[i])
		}
	}
	sort.SliceStable(modules, func(i, j int) bool {
		if modules[i].OrderIndex != modules[j].OrderIndex {
			return modules[i].OrderIndex < modules[j].OrderIndex
		}
		return modules[i].ID < modules[j].ID
	})
	return modules
}

func containsAll(set map[string]struct{}, ids []string) bool {
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// markBiggestDrop fills DropOff and flags the stage after the largest
// positive count drop. The first of several equal drops wins.
func markBiggestDrop(stages []models.FunnelStage) {
	best, bestAt := 0, -1
	for i := 1; i < len(stages); i++ {
		drop := stages[i-1].Count - stages[i].Count
		if drop < 0 {
			drop = 0
		}
		stages[i].DropOff = drop
		if drop > best {
			best, bestAt = drop, i
		}
	}
	if bestAt > 0 {
		stages[bestAt].IsBiggestDrop = true
	}
}

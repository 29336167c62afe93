// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package models

// CompletionAnalytics is the payload of the completion endpoint.
type CompletionAnalytics struct {
	CompletionBySchool []SchoolCompletion `json:"completionBySchool"`
	TimeToComplete     []TimeToComplete   `json:"timeToComplete"`
	CoursePopularity   []CoursePopularity `json:"coursePopularity"`
	DropoffFunnel      []FunnelStage      `json:"dropoffFunnel"`
	Courses            []CourseOption     `json:"courses"`
	SelectedCourseID   *string            `json:"selectedCourseId"`
}

// SchoolCompletion is one cohort's completion rollup.
type SchoolCompletion struct {
	School         string             `json:"school"`
	TotalEnrolled  int                `json:"totalEnrolled"`
	TotalCompleted int                `json:"totalCompleted"`
	CompletionRate int                `json:"completionRate"`
	Courses        []CourseCompletion `json:"courses"`
}

// CourseCompletion is one (cohort, course) group.
type CourseCompletion struct {
	CourseID       string `json:"courseId"`
	CourseTitle    string `json:"courseTitle"`
	Enrolled       int    `json:"enrolled"`
	Completed      int    `json:"completed"`
	CompletionRate int    `json:"completionRate"`
}

// TimeToComplete is the days-to-complete distribution of one course.
type TimeToComplete struct {
	CourseID        string  `json:"courseId"`
	CourseTitle     string  `json:"courseTitle"`
	MedianDays      float64 `json:"medianDays"`
	AvgDays         float64 `json:"avgDays"`
	MinDays         int     `json:"minDays"`
	MaxDays         int     `json:"maxDays"`
	CompletionCount int     `json:"completionCount"`
}

// CoursePopularity ranks a published course.
type CoursePopularity struct {
	CourseID       string `json:"courseId"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	Enrolled       int    `json:"enrolled"`
	Active         int    `json:"active"`
	Completed      int    `json:"completed"`
	CompletionRate int    `json:"completionRate"`
	// Trend holds six monthly enrollment counts, oldest first.
	Trend [TrendMonths]int `json:"trend"`
}

// TrendMonths is the length of the rolling enrollment trend.
const TrendMonths = 6

// FunnelStage is one step of the single-course funnel.
type FunnelStage struct {
	Stage         string `json:"stage"`
	Count         int    `json:"count"`
	Percentage    int    `json:"percentage"`
	DropOff       int    `json:"dropOff"`
	IsBiggestDrop bool   `json:"isBiggestDrop"`
}

// CourseOption lists a published course for funnel selection.
type CourseOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

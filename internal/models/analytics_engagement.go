// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package models

import "time"

// Heatmap dimensions: 7 days by the hours 6 through 22.
const (
	HeatmapFirstHour = 6
	HeatmapLastHour  = 22
	HeatmapHours     = HeatmapLastHour - HeatmapFirstHour + 1
	HeatmapDays      = 7
)

// EngagementAnalytics is the payload of the engagement endpoint.
type EngagementAnalytics struct {
	ActiveVsDormant         RecencyBreakdown   `json:"activeVsDormant"`
	DormantUsersList        []DormantUser      `json:"dormantUsersList"`
	PeakUsageHeatmap        UsageHeatmap       `json:"peakUsageHeatmap"`
	EngagementByPartnership []CohortEngagement `json:"engagementByPartnership"`
	ReturnRate              []WeeklyReturn     `json:"returnRate"`
	TotalUsers              int                `json:"totalUsers"`
}

// RecencyClass is one of the four recency segments.
type RecencyClass string

// Recency classes in evaluation order.
const (
	RecencyActive  RecencyClass = "active"
	RecencySlowing RecencyClass = "slowing"
	RecencyAtRisk  RecencyClass = "atRisk"
	RecencyDormant RecencyClass = "dormant"
)

// SegmentCount is the size of one recency class.
type SegmentCount struct {
	Count      int `json:"count"`
	Percentage int `json:"percentage"`
}

// RecencyBreakdown partitions all users by last activity.
type RecencyBreakdown struct {
	Active  SegmentCount `json:"active"`
	Slowing SegmentCount `json:"slowing"`
	AtRisk  SegmentCount `json:"atRisk"`
	Dormant SegmentCount `json:"dormant"`
}

// DormantUser is one row of the dormant list.
type DormantUser struct {
	UserID            string     `json:"userId"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	School            string     `json:"school"`
	LastActivity      *time.Time `json:"lastActivity"`
	DaysSinceActivity *int       `json:"daysSinceActivity"`
	LastCourse        *string    `json:"lastCourse"`
}

// UsageHeatmap counts activity by weekday (0 = Sunday) and hour.
type UsageHeatmap struct {
	Grid  [HeatmapDays][HeatmapHours]int `json:"grid"`
	Days  []string                       `json:"days"`
	Hours []int                          `json:"hours"`
	Peak  *HeatmapPeak                   `json:"peak"`
}

// HeatmapPeak is the busiest cell.
type HeatmapPeak struct {
	Day       int    `json:"day"`
	DayName   string `json:"dayName"`
	Hour      int    `json:"hour"`
	HourLabel string `json:"hourLabel"`
	Count     int    `json:"count"`
}

// CohortEngagement is one school's engagement rollup.
type CohortEngagement struct {
	School            string  `json:"school"`
	Phase             *string `json:"phase"`
	Users             int     `json:"users"`
	Enrolled          int     `json:"enrolled"`
	ActiveLast7Days   int     `json:"activeLast7Days"`
	CoursesStarted    int     `json:"coursesStarted"`
	CoursesCompleted  int     `json:"coursesCompleted"`
	AvgCompletionRate int     `json:"avgCompletionRate"`
}

// WeeklyReturn is one Sunday-start week.
type WeeklyReturn struct {
	WeekStart      string `json:"weekStart"`
	ReturningUsers int    `json:"returningUsers"`
	ReturnRate     int    `json:"returnRate"`
	NewEnrollments int    `json:"newEnrollments"`
}

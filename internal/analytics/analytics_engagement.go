// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"sort"
	"time"

	"github.com/tomtom215/cohortlens/internal/models"
)

// Recency thresholds in whole days since last activity.
const (
	activeWithinDays  = 7
	slowingWithinDays = 14
	atRiskWithinDays  = 30

	maxDormantListed    = 100
	minCohortUsers      = 2
	day                 = 24 * time.Hour
	heatmapWindow       = 30 * day
	returnRateWeeks     = 12
	minReturningDayKeys = 2
)

// activity is one timestamped event attributed to a user.
type activity struct {
	userID   string
	courseID string
	at       time.Time
}

// activityEvents collects lesson completions, enrollment starts and
// enrollment completions.
func activityEvents(idx *index) []activity {
	snap := idx.snap
	events := make([]activity, 0, len(snap.LessonProgress)+2*len(snap.Enrollments))
	for i := range snap.LessonProgress {
		p := &snap.LessonProgress[i]
		if p.CompletedAt.Valid {
			events = append(events, activity{userID: p.UserID, courseID: p.CourseID, at: p.CompletedAt.Time})
		}
	}
	for i := range snap.Enrollments {
		e := &snap.Enrollments[i]
		if start := e.StartedAt(); start.Valid {
			events = append(events, activity{userID: e.UserID, courseID: e.CourseID, at: start.Time})
		}
		if e.CompletedAt.Valid {
			events = append(events, activity{userID: e.UserID, courseID: e.CourseID, at: e.CompletedAt.Time})
		}
	}
	return events
}

// lastActivity is the latest event per user.
func lastActivity(events []activity) map[string]activity {
	last := make(map[string]activity)
	for _, ev := range events {
		if cur, ok := last[ev.userID]; !ok || ev.at.After(cur.at) {
			last[ev.userID] = ev
		}
	}
	return last
}

// daysSince is the whole number of days between t and now. Future times
// count as zero.
func daysSince(t, now time.Time) int {
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return int(d / day)
}

// classify maps a user's last activity to exactly one recency class.
func classify(last *activity, now time.Time) models.RecencyClass {
	if last == nil {
		return models.RecencyDormant
	}
	switch days := daysSince(last.at, now); {
	case days <= activeWithinDays:
		return models.RecencyActive
	case days <= slowingWithinDays:
		return models.RecencySlowing
	case days <= atRiskWithinDays:
		return models.RecencyAtRisk
	default:
		return models.RecencyDormant
	}
}

// engagement computes every engagement output for the profile population.
func engagement(idx *index, now time.Time, loc *time.Location) *models.EngagementAnalytics {
	events := activityEvents(idx)
	last := lastActivity(events)

	out := &models.EngagementAnalytics{
		DormantUsersList:        make([]models.DormantUser, 0),
		EngagementByPartnership: make([]models.CohortEngagement, 0),
		TotalUsers:              len(idx.snap.Profiles),
	}

	classes := make(map[string]models.RecencyClass, len(idx.snap.Profiles))
	counts := make(map[models.RecencyClass]int, 4)
	var dormant []models.DormantUser
	for i := range idx.snap.Profiles {
		p := &idx.snap.Profiles[i]
		var lastEv *activity
		if ev, ok := last[p.ID]; ok {
			lastEv = &ev
		}
		class := classify(lastEv, now)
		classes[p.ID] = class
		counts[class]++
		if class == models.RecencyDormant {
			dormant = append(dormant, dormantUser(idx, p, lastEv, now))
		}
	}

	total := len(idx.snap.Profiles)
	segment := func(c models.RecencyClass) models.SegmentCount {
		return models.SegmentCount{Count: counts[c], Percentage: Percent(counts[c], total)}
	}
	out.ActiveVsDormant = models.RecencyBreakdown{
		Active:  segment(models.RecencyActive),
		Slowing: segment(models.RecencySlowing),
		AtRisk:  segment(models.RecencyAtRisk),
		Dormant: segment(models.RecencyDormant),
	}

	sortDormant(dormant)
	if len(dormant) > maxDormantListed {
		dormant = dormant[:maxDormantListed]
	}
	out.DormantUsersList = append(out.DormantUsersList, dormant...)

	out.PeakUsageHeatmap = usageHeatmap(events, now, loc)
	out.EngagementByPartnership = append(out.EngagementByPartnership, cohortEngagement(idx, classes)...)
	out.ReturnRate = returnRate(idx, events, now, loc)
	return out
}

func dormantUser(idx *index, p *models.Profile, last *activity, now time.Time) models.DormantUser {
	u := models.DormantUser{
		UserID: p.ID,
		Name:   p.DisplayName,
		Email:  idx.snap.Emails[p.ID],
		School: p.School(),
	}
	if last != nil {
		at := last.at
		days := daysSince(at, now)
		u.LastActivity = &at
		u.DaysSinceActivity = &days
		if last.courseID != "" {
			title := idx.courseTitle(last.courseID)
			u.LastCourse = &title
		}
	}
	return u
}

// sortDormant orders most recent activity first; users with none sort last.
func sortDormant(users []models.DormantUser) {
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i].LastActivity, users[j].LastActivity
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return users[i].UserID < users[j].UserID
	})
}

// cohortEngagement rolls users up by school. Cohorts need at least two
// users to be reported.
func cohortEngagement(idx *index, classes map[string]models.RecencyClass) []models.CohortEngagement {
	bySchool := make(map[string]*models.CohortEngagement)
	get := func(school string) *models.CohortEngagement {
		c, ok := bySchool[school]
		if !ok {
			c = &models.CohortEngagement{School: school}
			bySchool[school] = c
		}
		return c
	}

	for i := range idx.snap.Profiles {
		p := &idx.snap.Profiles[i]
		c := get(p.School())
		c.Users++
		if classes[p.ID] == models.RecencyActive {
			c.ActiveLast7Days++
		}
	}
	for i := range idx.snap.Enrollments {
		e := &idx.snap.Enrollments[i]
		school, ok := idx.userSchool[e.UserID]
		if !ok {
			continue
		}
		c := get(school)
		c.Enrolled++
		if e.HasProgress() {
			c.CoursesStarted++
		}
		if e.IsCompleted() {
			c.CoursesCompleted++
		}
	}

	out := make([]models.CohortEngagement, 0, len(bySchool))
	for school, c := range bySchool {
		if c.Users < minCohortUsers {
			continue
		}
		c.AvgCompletionRate = Percent(c.CoursesCompleted, c.Enrolled)
		c.Phase = idx.phaseForSchool(school)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgCompletionRate != out[j].AvgCompletionRate {
			return out[i].AvgCompletionRate > out[j].AvgCompletionRate
		}
		if out[i].Users != out[j].Users {
			return out[i].Users > out[j].Users
		}
		return out[i].School < out[j].School
	})
	return out
}

// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"time"

	"github.com/tomtom215/cohortlens/internal/ingest"
	"github.com/tomtom215/cohortlens/internal/models"
)

// weekStart returns midnight of the Sunday at or before t, in loc.
func weekStart(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d-int(local.Weekday()), 0, 0, 0, 0, loc)
}

// returnRate reports, for each of the trailing twelve Sunday-start weeks
// ending at the current week, the users active on two or more distinct
// days and the enrollments begun that week. Weeks with neither are
// omitted. Only profile users count toward returning users.
func returnRate(idx *index, events []activity, now time.Time, loc *time.Location) []models.WeeklyReturn {
	current := weekStart(now, loc)
	y, m, d := current.Date()
	oldest := time.Date(y, m, d-7*(returnRateWeeks-1), 0, 0, 0, 0, loc)

	inWindow := func(t time.Time) (string, bool) {
		ws := weekStart(t, loc)
		if ws.Before(oldest) || ws.After(current) {
			return "", false
		}
		return ws.Format(ingest.DateLayout), true
	}

	// week -> user -> distinct local days
	days := make(map[string]map[string]map[string]struct{})
	for _, ev := range events {
		if _, ok := idx.profiles[ev.userID]; !ok {
			continue
		}
		week, ok := inWindow(ev.at)
		if !ok {
			continue
		}
		users, ok := days[week]
		if !ok {
			users = make(map[string]map[string]struct{})
			days[week] = users
		}
		seen, ok := users[ev.userID]
		if !ok {
			seen = make(map[string]struct{})
			users[ev.userID] = seen
		}
		seen[ev.at.In(loc).Format(ingest.DateLayout)] = struct{}{}
	}

	newEnrollments := make(map[string]int)
	for i := range idx.snap.Enrollments {
		start := idx.snap.Enrollments[i].StartedAt()
		if !start.Valid {
			continue
		}
		if week, ok := inWindow(start.Time); ok {
			newEnrollments[week]++
		}
	}

	total := len(idx.snap.Profiles)
	out := make([]models.WeeklyReturn, 0, returnRateWeeks)
	for i := 0; i < returnRateWeeks; i++ {
		week := time.Date(y, m, d-7*(returnRateWeeks-1-i), 0, 0, 0, 0, loc).Format(ingest.DateLayout)
		users, active := days[week]
		if !active && newEnrollments[week] == 0 {
			continue
		}
		returning := 0
		for _, seen := range users {
			if len(seen) >= minReturningDayKeys {
				returning++
			}
		}
		out = append(out, models.WeeklyReturn{
			WeekStart:      week,
			ReturningUsers: returning,
			ReturnRate:     Percent(returning, total),
			NewEnrollments: newEnrollments[week],
		})
	}
	return out
}

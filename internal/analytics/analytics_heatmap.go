// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"strconv"
	"time"

	"github.com/tomtom215/cohortlens/internal/models"
)

var dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// HourLabel formats an hour of day on a 12-hour clock, e.g. "2 PM".
func HourLabel(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return strconv.Itoa(h) + " " + suffix
}

// usageHeatmap counts the last 30 days of events by weekday and hour in
// loc. Hours outside 6-22 are not tracked.
func usageHeatmap(events []activity, now time.Time, loc *time.Location) models.UsageHeatmap {
	hm := models.UsageHeatmap{
		Days:  append([]string(nil), dayNames...),
		Hours: make([]int, 0, models.HeatmapHours),
	}
	for h := models.HeatmapFirstHour; h <= models.HeatmapLastHour; h++ {
		hm.Hours = append(hm.Hours, h)
	}

	since := now.Add(-heatmapWindow)
	for _, ev := range events {
		if ev.at.Before(since) || ev.at.After(now) {
			continue
		}
		local := ev.at.In(loc)
		hour := local.Hour()
		if hour < models.HeatmapFirstHour || hour > models.HeatmapLastHour {
			continue
		}
		hm.Grid[local.Weekday()][hour-models.HeatmapFirstHour]++
	}

	var peak *models.HeatmapPeak
	for d := 0; d < models.HeatmapDays; d++ {
		for h := 0; h < models.HeatmapHours; h++ {
			if n := hm.Grid[d][h]; n > 0 && (peak == nil || n > peak.Count) {
				hour := h + models.HeatmapFirstHour
				peak = &models.HeatmapPeak{
					Day:       d,
					DayName:   dayNames[d],
					Hour:      hour,
					HourLabel: HourLabel(hour),
					Count:     n,
				}
			}
		}
	}
	hm.Peak = peak
	return hm
}

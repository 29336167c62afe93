// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/cohortlens/internal/logging"
	"github.com/tomtom215/cohortlens/internal/metrics"
	"github.com/tomtom215/cohortlens/internal/models"
)

const monthLayout = "2006-01"

// Sample sources for the skipped-sample counter.
const (
	sourceSnapshot = "snapshot"
	sourceSurvey   = "survey"
)

// bucketedSnapshot is a metric snapshot with a recognized bucket and a
// present value.
type bucketedSnapshot struct {
	row    *models.MetricSnapshot
	name   models.MetricName
	bucket models.MetricBucket
}

// classifySnapshots resolves every snapshot's metric name. Unrecognized
// names are counted and otherwise ignored.
func classifySnapshots(ctx context.Context, idx *index) ([]bucketedSnapshot, int) {
	out := make([]bucketedSnapshot, 0, len(idx.snap.MetricSnapshots))
	unrecognized := 0
	for i := range idx.snap.MetricSnapshots {
		m := &idx.snap.MetricSnapshots[i]
		name, ok := models.ParseMetricName(m.MetricName)
		if !ok {
			unrecognized++
			logging.Ctx(ctx).Debug().Str("metric_name", m.MetricName).Str("snapshot_id", m.ID).
				Msg("Ignoring unrecognized metric")
			continue
		}
		if b := name.Bucket(); b != models.BucketNone && m.MetricValue.Valid {
			out = append(out, bucketedSnapshot{row: m, name: name, bucket: b})
		}
	}
	if unrecognized > 0 {
		metrics.AnalyticsUnrecognizedMetrics.Add(float64(unrecognized))
	}
	return out, unrecognized
}

// implementationSample converts v to the pooled 0-100 scale. ok is false
// when v is outside the source scale.
func implementationSample(v float64, scale models.Scale) (float64, bool) {
	if !scale.Contains(v) {
		return 0, false
	}
	return v * scale.Multiplier, true
}

// outcomes computes every outcome output.
func outcomes(ctx context.Context, idx *index, loc *time.Location) *models.OutcomeAnalytics {
	snapshots, unrecognized := classifySnapshots(ctx, idx)

	out := &models.OutcomeAnalytics{
		StressLevelTrends:        stressTrends(idx, snapshots, loc),
		PlanningTimeImprovements: planningImprovements(idx, snapshots),
	}
	impl, skipped := strategyImplementation(ctx, idx, snapshots)
	out.StrategyImplementation = impl
	out.SchoolImpactCards = impactCards(idx, snapshots)

	status := models.DataStatus{
		SurveyResponses:     len(idx.snap.SurveyResponses),
		MetricSnapshots:     len(idx.snap.MetricSnapshots),
		ProfileBaselines:    out.StressLevelTrends.BaselineSamples,
		UnrecognizedMetrics: unrecognized,
		SkippedSamples:      skipped,
	}
	status.HasSurveyData = status.SurveyResponses > 0
	status.HasSnapshotData = status.MetricSnapshots > 0
	status.HasBaselineData = status.ProfileBaselines > 0
	switch {
	case status.HasSurveyData && status.HasSnapshotData && status.HasBaselineData:
		status.Status = models.DataStatusComplete
	case status.HasSurveyData || status.HasSnapshotData || status.HasBaselineData:
		status.Status = models.DataStatusPartial
	default:
		status.Status = models.DataStatusEmpty
	}
	out.DataStatus = status
	return out
}

// monthlySeries turns month -> samples into an ascending series.
func monthlySeries(samples map[string][]float64) []models.MonthlyStress {
	months := make([]string, 0, len(samples))
	for m := range samples {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]models.MonthlyStress, 0, len(months))
	for _, m := range months {
		out = append(out, models.MonthlyStress{
			Month:      m,
			AvgStress:  meanPtr(samples[m]),
			SampleSize: len(samples[m]),
		})
	}
	return out
}

// stressTrends pools survey and snapshot stress per month, breaks surveys
// down per school and averages the onboarding baseline.
func stressTrends(idx *index, snapshots []bucketedSnapshot, loc *time.Location) models.StressTrends {
	pooled := make(map[string][]float64)
	bySchool := make(map[string]map[string][]float64)

	for i := range idx.snap.SurveyResponses {
		s := &idx.snap.SurveyResponses[i]
		if !s.StressLevel.Valid || !s.SubmittedAt.Valid {
			continue
		}
		month := s.SubmittedAt.Time.In(loc).Format(monthLayout)
		pooled[month] = append(pooled[month], s.StressLevel.Float64)

		school := idx.schoolOfOrg(s.OrganizationID)
		if bySchool[school] == nil {
			bySchool[school] = make(map[string][]float64)
		}
		bySchool[school][month] = append(bySchool[school][month], s.StressLevel.Float64)
	}
	for _, b := range snapshots {
		if b.bucket != models.BucketStress || !b.row.SnapshotDate.Valid {
			continue
		}
		month := b.row.SnapshotDate.Time.In(loc).Format(monthLayout)
		pooled[month] = append(pooled[month], b.row.MetricValue.Float64)
	}

	trends := models.StressTrends{
		Monthly:  monthlySeries(pooled),
		BySchool: make([]models.SchoolStressTrend, 0, len(bySchool)),
	}
	for school, months := range bySchool {
		trends.BySchool = append(trends.BySchool, models.SchoolStressTrend{School: school, Months: monthlySeries(months)})
	}
	sort.Slice(trends.BySchool, func(i, j int) bool { return trends.BySchool[i].School < trends.BySchool[j].School })

	var baseline []float64
	for i := range idx.snap.Profiles {
		if v := idx.snap.Profiles[i].Onboarding.InitialStressLevel; v.Valid {
			baseline = append(baseline, v.Float64)
		}
	}
	trends.BaselineAverage = meanPtr(baseline)
	trends.BaselineSamples = len(baseline)
	return trends
}

// beforeAfter collects baseline and current samples.
type beforeAfter struct {
	before, after []float64
}

func (s *beforeAfter) add(baseline bool, v float64) {
	if baseline {
		s.before = append(s.before, v)
	} else {
		s.after = append(s.after, v)
	}
}

func (s *beforeAfter) result() models.BeforeAfter {
	before, after := meanPtr(s.before), meanPtr(s.after)
	return models.BeforeAfter{Before: before, After: after, Change: diffPtr(after, before)}
}

// planningImprovements compares baseline planning hours per school with
// every other survey plus planning snapshots. improvement = before - after.
func planningImprovements(idx *index, snapshots []bucketedSnapshot) []models.PlanningImprovement {
	bySchool := make(map[string]*beforeAfter)
	get := func(school string) *beforeAfter {
		s, ok := bySchool[school]
		if !ok {
			s = &beforeAfter{}
			bySchool[school] = s
		}
		return s
	}

	for i := range idx.snap.SurveyResponses {
		s := &idx.snap.SurveyResponses[i]
		if s.PlanningHours.Valid {
			get(idx.schoolOfOrg(s.OrganizationID)).add(s.IsBaseline(), s.PlanningHours.Float64)
		}
	}
	for _, b := range snapshots {
		if b.bucket == models.BucketPlanning {
			get(idx.schoolOfOrg(b.row.OrganizationID)).add(false, b.row.MetricValue.Float64)
		}
	}

	out := make([]models.PlanningImprovement, 0, len(bySchool))
	for school, s := range bySchool {
		before, after := meanPtr(s.before), meanPtr(s.after)
		out = append(out, models.PlanningImprovement{
			School:          school,
			Before:          before,
			After:           after,
			Improvement:     diffPtr(before, after),
			BaselineSamples: len(s.before),
			CurrentSamples:  len(s.after),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Improvement, out[j].Improvement
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].School < out[j].School
	})
	return out
}

// strategyImplementation pools implementation snapshots (0-100) with survey
// confidence (1-10, scaled x10) per school. Out-of-scale values are
// skipped and counted.
func strategyImplementation(ctx context.Context, idx *index, snapshots []bucketedSnapshot) (models.ImplementationSummary, int) {
	bySchool := make(map[string][]float64)
	var all []float64
	skippedSnapshots, skippedSurveys := 0, 0

	for _, b := range snapshots {
		if b.bucket != models.BucketImplementation {
			continue
		}
		v, ok := implementationSample(b.row.MetricValue.Float64, models.SnapshotImplementationScale)
		if !ok {
			skippedSnapshots++
			logging.Ctx(ctx).Debug().Str("metric_name", b.name.String()).Str("snapshot_id", b.row.ID).
				Float64("value", b.row.MetricValue.Float64).Msg("Skipping out-of-scale implementation sample")
			continue
		}
		school := idx.schoolOfOrg(b.row.OrganizationID)
		bySchool[school] = append(bySchool[school], v)
		all = append(all, v)
	}
	for i := range idx.snap.SurveyResponses {
		s := &idx.snap.SurveyResponses[i]
		if !s.ImplementationConfidence.Valid {
			continue
		}
		v, ok := implementationSample(s.ImplementationConfidence.Float64, models.SurveyConfidenceScale)
		if !ok {
			skippedSurveys++
			continue
		}
		school := idx.schoolOfOrg(s.OrganizationID)
		bySchool[school] = append(bySchool[school], v)
		all = append(all, v)
	}
	if skippedSnapshots > 0 {
		metrics.AnalyticsSkippedSamples.WithLabelValues(sourceSnapshot).Add(float64(skippedSnapshots))
	}
	if skippedSurveys > 0 {
		metrics.AnalyticsSkippedSamples.WithLabelValues(sourceSurvey).Add(float64(skippedSurveys))
	}

	summary := models.ImplementationSummary{
		BySchool:    make([]models.SchoolImplementation, 0, len(bySchool)),
		OverallRate: meanPtr(all),
		SampleSize:  len(all),
	}
	for school, vals := range bySchool {
		summary.BySchool = append(summary.BySchool, models.SchoolImplementation{
			School:     school,
			Rate:       meanPtr(vals),
			SampleSize: len(vals),
		})
	}
	sort.Slice(summary.BySchool, func(i, j int) bool {
		a, b := summary.BySchool[i], summary.BySchool[j]
		if *a.Rate != *b.Rate {
			return *a.Rate > *b.Rate
		}
		return a.School < b.School
	})
	return summary, skippedSnapshots + skippedSurveys
}

// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/cohortlens/internal/ingest"
	"github.com/tomtom215/cohortlens/internal/metrics"
	"github.com/tomtom215/cohortlens/internal/models"
)

func outcomeSnapshot() *ingest.Snapshot {
	at := models.ParseOptTime
	return &ingest.Snapshot{
		Organizations: []models.Organization{
			{ID: "o1", Name: "Lincoln", PartnershipID: strPtr("p1")},
			{ID: "o2", Name: "Roosevelt"},
		},
		Partnerships: []models.Partnership{
			{ID: "p1", Slug: "lincoln-usd", ContractPhase: strPtr("Phase 2"), ContractStartDate: at("2023-08-01")},
			{ID: "p2", Slug: "dormant-contract"},
			{ID: "p3", Slug: "starting", ContractPhase: strPtr("Kickoff")},
		},
		SurveyResponses: []models.SurveyResponse{
			{ID: "s1", OrganizationID: "o1", SurveyType: "baseline", StressLevel: num(8), PlanningHours: num(10),
				ImplementationConfidence: num(5), SubmittedAt: at("2024-01-10T10:00:00Z")},
			{ID: "s2", OrganizationID: "o1", SurveyType: "followup", StressLevel: num(6), PlanningHours: num(6),
				ImplementationConfidence: num(8), SubmittedAt: at("2024-05-10T10:00:00Z")},
			{ID: "s3", OrganizationID: "o2", SurveyType: "followup", StressLevel: num(4),
				ImplementationConfidence: num(12), SubmittedAt: at("2024-05-20T10:00:00Z")},
			{ID: "s4", OrganizationID: "o2", SurveyType: "baseline", PlanningHours: num(5),
				SubmittedAt: at("2024-01-15T10:00:00Z")},
		},
		MetricSnapshots: []models.MetricSnapshot{
			{ID: "m1", OrganizationID: "o1", MetricName: "stress_level", MetricValue: num(7), SnapshotDate: at("2024-05-01")},
			{ID: "m2", OrganizationID: "o2", MetricName: "implementation_rate", MetricValue: num(70), SnapshotDate: at("2024-05-01")},
			{ID: "m3", OrganizationID: "o2", MetricName: "implementation_rate", MetricValue: num(150), SnapshotDate: at("2024-05-01")},
			{ID: "m4", OrganizationID: "o1", MetricName: "mystery_metric", MetricValue: num(1), SnapshotDate: at("2024-05-01")},
			{ID: "m5", OrganizationID: "o1", MetricName: "retention_intent", MetricValue: num(3), SnapshotDate: at("2024-05-01")},
		},
		Profiles: []models.Profile{
			{ID: "u1", Onboarding: models.Onboarding{InitialStressLevel: num(9)}},
			{ID: "u2", Onboarding: models.Onboarding{InitialStressLevel: num(7)}},
			{ID: "u3"},
		},
	}
}

func TestOutcomes_StressTrends(t *testing.T) {
	trends := analyze(t, outcomeSnapshot(), "").Outcomes.StressLevelTrends

	if len(trends.Monthly) != 2 {
		t.Fatalf("monthly = %+v", trends.Monthly)
	}
	jan, may := trends.Monthly[0], trends.Monthly[1]
	if jan.Month != "2024-01" || jan.SampleSize != 1 {
		t.Errorf("jan = %+v", jan)
	}
	assertFloatPtr(t, "jan avg", jan.AvgStress, 8)
	if may.Month != "2024-05" || may.SampleSize != 3 {
		t.Errorf("may = %+v", may)
	}
	assertFloatPtr(t, "may avg", may.AvgStress, 5.7)

	if len(trends.BySchool) != 2 || trends.BySchool[0].School != "Lincoln" || len(trends.BySchool[0].Months) != 2 {
		t.Errorf("by school = %+v", trends.BySchool)
	}
	assertFloatPtr(t, "roosevelt may", trends.BySchool[1].Months[0].AvgStress, 4)

	assertFloatPtr(t, "baseline", trends.BaselineAverage, 8)
	if trends.BaselineSamples != 2 {
		t.Errorf("baseline samples = %d, want 2", trends.BaselineSamples)
	}
}

func TestOutcomes_PlanningImprovements(t *testing.T) {
	got := analyze(t, outcomeSnapshot(), "").Outcomes.PlanningTimeImprovements

	if len(got) != 2 {
		t.Fatalf("planning = %+v", got)
	}
	lincoln, roosevelt := got[0], got[1]
	if lincoln.School != "Lincoln" || lincoln.BaselineSamples != 1 || lincoln.CurrentSamples != 1 {
		t.Errorf("lincoln = %+v", lincoln)
	}
	assertFloatPtr(t, "lincoln before", lincoln.Before, 10)
	assertFloatPtr(t, "lincoln after", lincoln.After, 6)
	assertFloatPtr(t, "lincoln improvement", lincoln.Improvement, 4)

	if roosevelt.School != "Roosevelt" {
		t.Errorf("null improvement should sort last, got %+v", got)
	}
	assertFloatPtr(t, "roosevelt before", roosevelt.Before, 5)
	assertNil(t, "roosevelt after", roosevelt.After)
	assertNil(t, "roosevelt improvement", roosevelt.Improvement)
}

func TestOutcomes_StrategyImplementation(t *testing.T) {
	before := testutil.ToFloat64(metrics.AnalyticsSkippedSamples.WithLabelValues(sourceSnapshot))

	res := analyze(t, outcomeSnapshot(), "").Outcomes
	impl := res.StrategyImplementation

	if impl.SampleSize != 3 {
		t.Errorf("sample size = %d, want 3", impl.SampleSize)
	}
	assertFloatPtr(t, "overall", impl.OverallRate, 66.7)
	if len(impl.BySchool) != 2 || impl.BySchool[0].School != "Roosevelt" {
		t.Fatalf("by school = %+v", impl.BySchool)
	}
	assertFloatPtr(t, "roosevelt", impl.BySchool[0].Rate, 70)
	assertFloatPtr(t, "lincoln", impl.BySchool[1].Rate, 65)

	if res.DataStatus.SkippedSamples != 2 {
		t.Errorf("skipped = %d, want 2", res.DataStatus.SkippedSamples)
	}
	if got := testutil.ToFloat64(metrics.AnalyticsSkippedSamples.WithLabelValues(sourceSnapshot)) - before; got != 1 {
		t.Errorf("snapshot skipped metric grew by %v, want 1", got)
	}
}

func TestOutcomes_ImpactCards(t *testing.T) {
	cards := analyze(t, outcomeSnapshot(), "").Outcomes.SchoolImpactCards

	if len(cards) != 2 {
		t.Fatalf("cards = %+v", cards)
	}
	lincoln, starting := cards[0], cards[1]
	if lincoln.PartnershipID != "p1" || lincoln.School != "Lincoln" || lincoln.SurveyResponses != 2 {
		t.Errorf("lincoln card = %+v", lincoln)
	}
	if lincoln.Phase == nil || *lincoln.Phase != "Phase 2" || lincoln.ContractStartDate == nil || *lincoln.ContractStartDate != "2023-08-01" {
		t.Errorf("lincoln labels = %+v", lincoln)
	}
	assertFloatPtr(t, "stress before", lincoln.Stress.Before, 8)
	assertFloatPtr(t, "stress after", lincoln.Stress.After, 6.5)
	assertFloatPtr(t, "stress change", lincoln.Stress.Change, -1.5)
	assertFloatPtr(t, "planning change", lincoln.PlanningHours.Change, -4)
	assertFloatPtr(t, "implementation before", lincoln.ImplementationRate.Before, 50)
	assertFloatPtr(t, "implementation after", lincoln.ImplementationRate.After, 80)

	if starting.School != "starting" || starting.SurveyResponses != 0 || starting.Phase == nil {
		t.Errorf("phase-only card = %+v", starting)
	}
	assertNil(t, "starting stress", starting.Stress.Before)
}

func TestOutcomes_DataStatus(t *testing.T) {
	status := analyze(t, outcomeSnapshot(), "").Outcomes.DataStatus

	if status.Status != models.DataStatusComplete {
		t.Errorf("status = %s, want complete", status.Status)
	}
	if status.SurveyResponses != 4 || status.MetricSnapshots != 5 || status.ProfileBaselines != 2 || status.UnrecognizedMetrics != 1 {
		t.Errorf("status = %+v", status)
	}

	partial := outcomeSnapshot()
	partial.MetricSnapshots = nil
	if got := analyze(t, partial, "").Outcomes.DataStatus.Status; got != models.DataStatusPartial {
		t.Errorf("status without snapshots = %s, want partial", got)
	}
}

func TestOutcomes_NullsAreNotZero(t *testing.T) {
	snap := &ingest.Snapshot{
		Organizations: []models.Organization{{ID: "o1", Name: "Lincoln"}},
		SurveyResponses: []models.SurveyResponse{
			{ID: "s1", OrganizationID: "o1", SurveyType: "baseline", PlanningHours: num(8)},
			{ID: "s2", OrganizationID: "o1", SurveyType: "followup"},
			{ID: "s3", OrganizationID: "o1", SurveyType: "followup", PlanningHours: num(4)},
		},
	}
	got := analyze(t, snap, "").Outcomes.PlanningTimeImprovements
	if len(got) != 1 {
		t.Fatalf("planning = %+v", got)
	}
	assertFloatPtr(t, "after", got[0].After, 4)
	if got[0].CurrentSamples != 1 {
		t.Errorf("null planning hours counted as a sample: %+v", got[0])
	}
}

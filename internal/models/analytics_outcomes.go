// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package models

// OutcomeAnalytics is the payload of the outcomes endpoint.
type OutcomeAnalytics struct {
	StressLevelTrends        StressTrends          `json:"stressLevelTrends"`
	PlanningTimeImprovements []PlanningImprovement `json:"planningTimeImprovements"`
	StrategyImplementation   ImplementationSummary `json:"strategyImplementation"`
	SchoolImpactCards        []ImpactCard          `json:"schoolImpactCards"`
	DataStatus               DataStatus            `json:"dataStatus"`
}

// StressTrends holds the pooled monthly series, the per-school survey
// series and the onboarding baseline.
type StressTrends struct {
	Monthly         []MonthlyStress     `json:"monthly"`
	BySchool        []SchoolStressTrend `json:"bySchool"`
	BaselineAverage *float64            `json:"baselineAverage"`
	BaselineSamples int                 `json:"baselineSamples"`
}

// MonthlyStress is one calendar month ("2006-01").
type MonthlyStress struct {
	Month      string   `json:"month"`
	AvgStress  *float64 `json:"avgStress"`
	SampleSize int      `json:"sampleSize"`
}

// SchoolStressTrend is one school's survey-only monthly series.
type SchoolStressTrend struct {
	School string          `json:"school"`
	Months []MonthlyStress `json:"months"`
}

// PlanningImprovement compares baseline and current planning hours.
type PlanningImprovement struct {
	School          string   `json:"school"`
	Before          *float64 `json:"before"`
	After           *float64 `json:"after"`
	Improvement     *float64 `json:"improvement"`
	BaselineSamples int      `json:"baselineSamples"`
	CurrentSamples  int      `json:"currentSamples"`
}

// ImplementationSummary is the implementation-rate rollup.
type ImplementationSummary struct {
	BySchool    []SchoolImplementation `json:"bySchool"`
	OverallRate *float64               `json:"overallRate"`
	SampleSize  int                    `json:"sampleSize"`
}

// SchoolImplementation is one school's pooled implementation rate.
type SchoolImplementation struct {
	School     string   `json:"school"`
	Rate       *float64 `json:"rate"`
	SampleSize int      `json:"sampleSize"`
}

// BeforeAfter is a nullable before/after pair.
type BeforeAfter struct {
	Before *float64 `json:"before"`
	After  *float64 `json:"after"`
	Change *float64 `json:"change"`
}

// ImpactCard summarizes one partnership.
type ImpactCard struct {
	PartnershipID      string      `json:"partnershipId"`
	Slug               string      `json:"slug"`
	School             string      `json:"school"`
	Phase              *string     `json:"phase"`
	ContractStartDate  *string     `json:"contractStartDate"`
	SurveyResponses    int         `json:"surveyResponses"`
	Stress             BeforeAfter `json:"stress"`
	PlanningHours      BeforeAfter `json:"planningHours"`
	ImplementationRate BeforeAfter `json:"implementationRate"`
}

// Data status values.
const (
	DataStatusEmpty    = "empty"
	DataStatusPartial  = "partial"
	DataStatusComplete = "complete"
)

// DataStatus tells callers whether nulls mean "no data" or "no change".
type DataStatus struct {
	Status              string `json:"status"`
	HasSurveyData       bool   `json:"hasSurveyData"`
	HasSnapshotData     bool   `json:"hasSnapshotData"`
	HasBaselineData     bool   `json:"hasBaselineData"`
	SurveyResponses     int    `json:"surveyResponses"`
	MetricSnapshots     int    `json:"metricSnapshots"`
	ProfileBaselines    int    `json:"profileBaselines"`
	UnrecognizedMetrics int    `json:"unrecognizedMetrics"`
	SkippedSamples      int    `json:"skippedSamples"`
}

// AnalyticsSummary bundles all three groupings computed from one fetch.
type AnalyticsSummary struct {
	Completion *CompletionAnalytics `json:"completion"`
	Engagement *EngagementAnalytics `json:"engagement"`
	Outcomes   *OutcomeAnalytics    `json:"outcomes"`
}

// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package models

import "strings"

// MetricName is the closed set of snapshot metric tags.
type MetricName int

// Known metric names.
const (
	MetricUnknown MetricName = iota
	MetricStressLevel
	MetricAvgStress
	MetricPlanningHours
	MetricAvgPlanningHours
	MetricImplementationRate
	MetricStrategyImplementation
	MetricImplementationConfidence
	MetricRetentionIntent
	MetricFeelingValued
)

// MetricBucket is the aggregation a metric feeds.
type MetricBucket int

// Aggregation buckets. BucketNone is for known metrics no stage consumes.
const (
	BucketNone MetricBucket = iota
	BucketStress
	BucketPlanning
	BucketImplementation
)

var metricTags = map[string]MetricName{
	"stress_level":              MetricStressLevel,
	"avg_stress":                MetricAvgStress,
	"planning_hours":            MetricPlanningHours,
	"avg_planning_hours":        MetricAvgPlanningHours,
	"implementation_rate":       MetricImplementationRate,
	"strategy_implementation":   MetricStrategyImplementation,
	"implementation_confidence": MetricImplementationConfidence,
	"retention_intent":          MetricRetentionIntent,
	"feeling_valued":            MetricFeelingValued,
}

var metricBuckets = map[MetricName]MetricBucket{
	MetricStressLevel:              BucketStress,
	MetricAvgStress:                BucketStress,
	MetricPlanningHours:            BucketPlanning,
	MetricAvgPlanningHours:         BucketPlanning,
	MetricImplementationRate:       BucketImplementation,
	MetricStrategyImplementation:   BucketImplementation,
	MetricImplementationConfidence: BucketImplementation,
	MetricRetentionIntent:          BucketNone,
	MetricFeelingValued:            BucketNone,
}

// ParseMetricName maps a stored tag to a MetricName. The second result is
// false for tags outside the known set.
func ParseMetricName(tag string) (MetricName, bool) {
	name, ok := metricTags[strings.ToLower(strings.TrimSpace(tag))]
	return name, ok
}

// Bucket returns the aggregation bucket, BucketNone for MetricUnknown.
func (m MetricName) Bucket() MetricBucket {
	return metricBuckets[m]
}

// String returns the canonical tag, "unknown" for MetricUnknown.
func (m MetricName) String() string {
	if tag, ok := canonicalTags[m]; ok {
		return tag
	}
	return "unknown"
}

// canonicalTags inverts metricTags. Each name has exactly one tag.
var canonicalTags = func() map[MetricName]string {
	out := make(map[MetricName]string, len(metricTags))
	for tag, name := range metricTags {
		out[name] = tag
	}
	return out
}()

// Scale is the inclusive range a source value must fall in before it is
// pooled. Values outside it are skipped, not clamped.
type Scale struct {
	Min, Max float64
	// Multiplier converts the source scale to the pooled 0-100 scale.
	Multiplier float64
}

// Contains reports whether v is inside the scale.
func (s Scale) Contains(v float64) bool {
	return v >= s.Min && v <= s.Max
}

// Input scales for the implementation-rate pool.
var (
	// SnapshotImplementationScale covers snapshot values already stored 0-100.
	SnapshotImplementationScale = Scale{Min: 0, Max: 100, Multiplier: 1}
	// SurveyConfidenceScale covers survey implementation_confidence on 1-10.
	SurveyConfidenceScale = Scale{Min: 1, Max: 10, Multiplier: 10}
)

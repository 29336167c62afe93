// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package analytics

import (
	"math"
	"sort"
)

// Percent returns round(100*n/d) bounded to [0, 100]. A zero denominator
// yields 0.
func Percent(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(n) / float64(d)))
	if p > 100 {
		return 100
	}
	return p
}

// Median returns the middle value of vals, or the mean of the two middle
// values for an even count. vals is not modified. Empty input yields 0.
func Median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Mean returns the arithmetic mean, 0 for empty input.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// meanPtr returns the one-decimal mean, or nil when there are no samples.
func meanPtr(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m := Round1(Mean(vals))
	return &m
}

// diffPtr returns round1(a-b) when both are present.
func diffPtr(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := Round1(*a - *b)
	return &d
}

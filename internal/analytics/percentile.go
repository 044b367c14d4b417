// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (p in [0,1]) of an ascending
// sequence using linear interpolation between the closest ranks.
// It returns nil for an empty input. p outside [0,1] is clamped.
func Percentile(sorted []float64, p float64) *float64 {
	n := len(sorted)
	if n == 0 {
		return nil
	}
	if math.IsNaN(p) {
		p = 0
	}
	p = math.Max(0, math.Min(1, p))

	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	v := sorted[lo]
	if hi != lo {
		v += (sorted[hi] - sorted[lo]) * (rank - float64(lo))
	}
	return &v
}

// Mean returns the arithmetic mean of values, or nil when empty.
func Mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

// Distribution summarizes a set of measurements.
type Distribution struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	P90    *float64 `json:"p90"`
}

// Summarize computes mean, median and 90th percentile of values.
// Non-finite values are skipped. The input slice is not modified.
func Summarize(values []float64) Distribution {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	sort.Float64s(clean)

	return Distribution{
		Count:  len(clean),
		Mean:   Mean(clean),
		Median: Percentile(clean, 0.5),
		P90:    Percentile(clean, 0.9),
	}
}

// ratio returns num/den, or nil when den is zero.
func ratio(num, den int64) *float64 {
	if den == 0 {
		return nil
	}
	r := float64(num) / float64(den)
	return &r
}

// growthPercent returns the relative change from previous to current in
// percent, or nil when previous is zero.
func growthPercent(current, previous int64) *float64 {
	if previous == 0 {
		return nil
	}
	g := float64(current-previous) / float64(previous) * 100
	return &g
}

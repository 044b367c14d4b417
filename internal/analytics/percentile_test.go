package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"median even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p90 interpolated", []float64{1, 2, 3, 4}, 0.9, 3.7},
		{"median odd", []float64{10, 20, 30}, 0.5, 20},
		{"single value", []float64{42}, 0.9, 42},
		{"lowest", []float64{5, 7, 9}, 0, 5},
		{"highest", []float64{5, 7, 9}, 1, 9},
		{"clamped above", []float64{5, 7, 9}, 1.5, 9},
		{"clamped below", []float64{5, 7, 9}, -1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.values, tt.p)
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestPercentile_Empty(t *testing.T) {
	assert.Nil(t, Percentile(nil, 0.5))
	assert.Nil(t, Mean(nil))
}

func TestSummarize(t *testing.T) {
	values := []float64{40, 10, math.NaN(), 30, 20, math.Inf(1)}
	d := Summarize(values)

	assert.Equal(t, 4, d.Count)
	require.NotNil(t, d.Mean)
	assert.InDelta(t, 25, *d.Mean, 1e-9)
	require.NotNil(t, d.Median)
	assert.InDelta(t, 25, *d.Median, 1e-9)
	require.NotNil(t, d.P90)
	assert.InDelta(t, 37, *d.P90, 1e-9)

	// input order is preserved
	assert.Equal(t, 40.0, values[0])
}

func TestSummarize_Empty(t *testing.T) {
	d := Summarize(nil)
	assert.Equal(t, 0, d.Count)
	assert.Nil(t, d.Mean)
	assert.Nil(t, d.Median)
	assert.Nil(t, d.P90)
}

func TestGrowthPercent(t *testing.T) {
	assert.Nil(t, growthPercent(10, 0))

	g := growthPercent(15, 10)
	require.NotNil(t, g)
	assert.InDelta(t, 50, *g, 1e-9)

	g = growthPercent(5, 10)
	require.NotNil(t, g)
	assert.InDelta(t, -50, *g, 1e-9)
}

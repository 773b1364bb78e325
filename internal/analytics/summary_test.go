package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSummaryEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, ComputeSummary(nil))
	assert.Nil(t, ComputeSummary([]float64{}))
}

func TestComputeSummaryEvenCount(t *testing.T) {
	summary := ComputeSummary([]float64{90, 60, 80, 70})
	require.NotNil(t, summary)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 75.0, summary.Average)
	assert.Equal(t, 75.0, summary.Median)
	assert.Equal(t, 90.0, summary.Max)
	assert.Equal(t, 60.0, summary.Min)
	assert.InDelta(t, 11.18, summary.StandardDeviation, 1e-9)
	assert.Equal(t, 1, summary.Distribution.Excellent)
	assert.Equal(t, 1, summary.Distribution.Good)
	assert.Equal(t, 1, summary.Distribution.Medium)
	assert.Equal(t, 1, summary.Distribution.Pass)
	assert.Equal(t, 0, summary.Distribution.Fail)
	assert.Equal(t, 25.0, summary.Rates.ExcellentRate)
	assert.Equal(t, 25.0, summary.Rates.GoodRate)
	assert.Equal(t, 100.0, summary.Rates.PassRate)
}

func TestComputeSummaryOddMedian(t *testing.T) {
	summary := ComputeSummary([]float64{80, 60, 70})
	require.NotNil(t, summary)
	assert.Equal(t, 70.0, summary.Median)
}

func TestComputeSummaryStandardDeviationIsPopulation(t *testing.T) {
	flat := ComputeSummary([]float64{100, 100, 100})
	require.NotNil(t, flat)
	assert.Equal(t, 0.0, flat.StandardDeviation)

	spread := ComputeSummary([]float64{0, 100})
	require.NotNil(t, spread)
	assert.Equal(t, 50.0, spread.StandardDeviation)
	assert.Equal(t, 1, spread.Distribution.Fail)
	assert.Equal(t, 1, spread.Distribution.Excellent)
	assert.Equal(t, 50.0, spread.Rates.PassRate)
}

func TestComputeSummaryRoundsAverage(t *testing.T) {
	summary := ComputeSummary([]float64{70, 71, 71})
	require.NotNil(t, summary)
	assert.InDelta(t, 70.67, summary.Average, 1e-9)
}

func TestComputeSummaryBandBoundaries(t *testing.T) {
	summary := ComputeSummary([]float64{59.9, 60, 69.9, 70, 79.9, 80, 89.9, 90, 100})
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Distribution.Fail)
	assert.Equal(t, 2, summary.Distribution.Pass)
	assert.Equal(t, 2, summary.Distribution.Medium)
	assert.Equal(t, 2, summary.Distribution.Good)
	assert.Equal(t, 2, summary.Distribution.Excellent)
}

func TestComputeSummaryInvariants(t *testing.T) {
	cohorts := [][]float64{
		{42},
		{0, 100},
		{55, 61.5, 73, 88, 91, 99.5},
		{60, 60, 60, 59.5},
		{12.5, 33, 47, 58, 64, 71, 77, 83, 86, 94, 100},
	}
	for _, values := range cohorts {
		summary := ComputeSummary(values)
		require.NotNil(t, summary)
		assert.Equal(t, len(values), summary.Distribution.Count())
		assert.LessOrEqual(t, summary.Min, summary.Median)
		assert.LessOrEqual(t, summary.Median, summary.Max)
		assert.LessOrEqual(t, summary.Min, summary.Average)
		assert.LessOrEqual(t, summary.Average, summary.Max)
	}
}

func TestComputeSummaryPassRateMonotonic(t *testing.T) {
	values := []float64{20, 30, 40, 50, 65}
	previous := ComputeSummary(values).Rates.PassRate
	for i := range values {
		values[i] = 95
		current := ComputeSummary(values).Rates.PassRate
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
	assert.Equal(t, 100.0, previous)
}

func TestComputeSummaryIdempotent(t *testing.T) {
	values := []float64{88, 47.5, 91, 63, 70}
	first := ComputeSummary(values)
	second := ComputeSummary(values)
	assert.Equal(t, first, second)
	assert.Equal(t, []float64{88, 47.5, 91, 63, 70}, values)
}

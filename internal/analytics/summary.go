// Package analytics computes score statistics, rankings, trends and narrative
// reports over score records that were already fetched by the caller. Every
// function is pure and safe for concurrent use.
package analytics

import (
	"github.com/montanaflynn/stats"

	"github.com/noah-isme/sma-score-analytics/internal/models"
)

// Band lower bounds. A score belongs to the highest band whose bound it reaches.
const (
	ExcellentThreshold = 90.0
	GoodThreshold      = 80.0
	MediumThreshold    = 70.0
	PassThreshold      = 60.0
)

// aggregate holds unrounded cohort figures shared by the summary and the report.
type aggregate struct {
	count        int
	sum          float64
	mean         float64
	max          float64
	min          float64
	distribution models.ScoreDistribution
}

func (a aggregate) rate(n int) float64 {
	return float64(n) / float64(a.count) * 100
}

// passRate is the share of scores at or above the pass line, including every higher band.
func (a aggregate) passRate() float64 {
	d := a.distribution
	return a.rate(d.Pass + d.Good + d.Excellent + d.Medium)
}

func aggregateScores(values []float64) (aggregate, bool) {
	if len(values) == 0 {
		return aggregate{}, false
	}
	data := stats.Float64Data(values)
	sum, _ := data.Sum()
	maxValue, _ := data.Max()
	minValue, _ := data.Min()

	agg := aggregate{
		count: len(values),
		sum:   sum,
		mean:  sum / float64(len(values)),
		max:   maxValue,
		min:   minValue,
	}
	for _, v := range values {
		switch band(v) {
		case bandExcellent:
			agg.distribution.Excellent++
		case bandGood:
			agg.distribution.Good++
		case bandMedium:
			agg.distribution.Medium++
		case bandPass:
			agg.distribution.Pass++
		default:
			agg.distribution.Fail++
		}
	}
	return agg, true
}

type scoreBand int

const (
	bandFail scoreBand = iota
	bandPass
	bandMedium
	bandGood
	bandExcellent
)

func band(v float64) scoreBand {
	switch {
	case v >= ExcellentThreshold:
		return bandExcellent
	case v >= GoodThreshold:
		return bandGood
	case v >= MediumThreshold:
		return bandMedium
	case v >= PassThreshold:
		return bandPass
	default:
		return bandFail
	}
}

// ComputeSummary aggregates score values. It returns nil when there is no data.
func ComputeSummary(values []float64) *models.SummaryStats {
	agg, ok := aggregateScores(values)
	if !ok {
		return nil
	}
	data := stats.Float64Data(values)
	median, _ := data.Median()
	stdDev, _ := data.StandardDeviationPopulation()

	return &models.SummaryStats{
		Total:             agg.count,
		Average:           round(agg.mean, 2),
		Max:               agg.max,
		Min:               agg.min,
		Median:            round(median, 2),
		StandardDeviation: round(stdDev, 2),
		Distribution:      agg.distribution,
		Rates: models.ScoreRates{
			ExcellentRate: round(agg.rate(agg.distribution.Excellent), 1),
			GoodRate:      round(agg.rate(agg.distribution.Good), 1),
			PassRate:      round(agg.passRate(), 1),
		},
	}
}

// ScoreValues extracts the numeric scores from records, preserving order.
func ScoreValues(records []models.ScoreRecord) []float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Score
	}
	return values
}

func round(v float64, places int) float64 {
	rounded, err := stats.Round(v, places)
	if err != nil {
		return v
	}
	return rounded
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

package analytics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/noah-isme/sma-score-analytics/internal/models"
)

// TrendThreshold is the half-over-half average change needed to call a trend.
const TrendThreshold = 5.0

const (
	trendInsufficientData = "insufficient data to analyze trend"
	trendRisingText       = "scores are rising, keep it up"
	trendDecliningText    = "scores have declined, additional tutoring is recommended"
	trendStableText       = "scores are stable"
)

// AnalyzeTrend classifies a chronologically ordered score sequence by comparing
// the average of its second half against its first half. On odd lengths the
// extra score belongs to the second half. The input order is trusted as is.
func AnalyzeTrend(ordered []float64) models.TrendResult {
	if len(ordered) < 2 {
		return models.TrendResult{Trend: models.TrendStable, Description: trendInsufficientData}
	}

	split := len(ordered) / 2
	diff := mean(ordered[split:]) - mean(ordered[:split])
	result := models.TrendResult{Slope: round(slope(ordered), 2)}

	switch {
	case diff > TrendThreshold:
		result.Trend = models.TrendRising
		result.Description = trendRisingText
	case diff < -TrendThreshold:
		result.Trend = models.TrendDeclining
		result.Description = trendDecliningText
	default:
		result.Trend = models.TrendStable
		result.Description = trendStableText
	}
	return result
}

// slope fits a least-squares line over the sequence index.
func slope(ys []float64) float64 {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}

// TrendScores extracts the score values of trend points in their given order.
func TrendScores(points []models.TrendPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Score
	}
	return values
}

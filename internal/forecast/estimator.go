package forecast

import (
	"math"

	"maitred/internal/models"
)

// Estimate is the numeric outcome of aggregating retrieved patterns.
type Estimate struct {
	PredictedCovers int
	Confidence      float64
	Method          string
	PatternsCount   int
	AccuracyMetrics models.AccuracyMetrics
}

// Fallback values returned when no patterns are available at all.
const (
	fallbackCovers     = 120
	fallbackConfidence = 0.60
)

// DemandEstimator aggregates patterns into a point forecast. It is a pure
// function of its input; no state is carried between calls.
type DemandEstimator struct{}

// NewDemandEstimator returns a DemandEstimator.
func NewDemandEstimator() *DemandEstimator {
	return &DemandEstimator{}
}

// Estimate computes a similarity-weighted forecast. With no patterns it
// returns the conservative static fallback; the empty check here is what
// keeps the weighted division safe.
func (e *DemandEstimator) Estimate(patterns []models.Pattern) Estimate {
	if len(patterns) == 0 {
		return Estimate{
			PredictedCovers: fallbackCovers,
			Confidence:      fallbackConfidence,
			Method:          models.MethodFallback,
			AccuracyMetrics: models.AccuracyMetrics{
				Method: models.MethodFallback,
				Note:   "No patterns available for estimation",
			},
		}
	}

	var totalWeight, weightedSum float64
	for _, p := range patterns {
		totalWeight += p.Similarity
		weightedSum += float64(p.ActualCovers) * p.Similarity
	}

	predicted := int(math.Round(weightedSum / totalWeight))
	confidence := round2(totalWeight / float64(len(patterns)))

	return Estimate{
		PredictedCovers: predicted,
		Confidence:      confidence,
		Method:          models.MethodWeightedAverage,
		PatternsCount:   len(patterns),
		AccuracyMetrics: e.estimateAccuracy(patterns),
	}
}

// estimateAccuracy derives an uncertainty estimate from the spread of the
// retrieved patterns. It is a dispersion proxy: if similar service days vary
// by X%, the prediction likely carries about X% error. It is not a
// backtested forecast error and must never be presented as one.
func (e *DemandEstimator) estimateAccuracy(patterns []models.Pattern) models.AccuracyMetrics {
	if len(patterns) < 2 {
		return models.AccuracyMetrics{
			Method: "rag_weighted_average",
			Note:   "Insufficient patterns for variance estimation",
		}
	}

	var sum float64
	minCovers, maxCovers := patterns[0].ActualCovers, patterns[0].ActualCovers
	for _, p := range patterns {
		sum += float64(p.ActualCovers)
		if p.ActualCovers < minCovers {
			minCovers = p.ActualCovers
		}
		if p.ActualCovers > maxCovers {
			maxCovers = p.ActualCovers
		}
	}
	mean := sum / float64(len(patterns))

	var mape *float64
	if mean > 0 {
		var deviations float64
		for _, p := range patterns {
			deviations += math.Abs(float64(p.ActualCovers)-mean) / mean * 100
		}
		v := math.Round(deviations/float64(len(patterns))*10) / 10
		mape = &v
	}

	interval := [2]int{minCovers, maxCovers}

	return models.AccuracyMetrics{
		Method:             "rag_weighted_average",
		EstimatedMAPE:      mape,
		PredictionInterval: &interval,
		PatternsAnalyzed:   len(patterns),
		Note:               "Estimated from similar pattern variance, not backtested",
	}
}

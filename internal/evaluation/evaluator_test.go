package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maitred/internal/database"
)

func TestEvaluateEmpty(t *testing.T) {
	report := Evaluate(nil)
	assert.Zero(t, report.Overall.Samples)
	assert.Empty(t, report.ByServiceType)
	assert.Empty(t, report.BySource)
}

func TestEvaluateOverall(t *testing.T) {
	report := Evaluate([]database.ForecastOutcome{
		{ServiceType: "dinner", PatternSource: "index", PredictedCovers: 110, ActualCovers: 100},
		{ServiceType: "dinner", PatternSource: "index", PredictedCovers: 90, ActualCovers: 100},
	})

	overall := report.Overall
	assert.Equal(t, 2, overall.Samples)
	assert.Equal(t, 10.0, overall.MAPE)
	assert.Equal(t, 10.0, overall.MAE)
	// Overprediction and underprediction of equal size cancel out.
	assert.Zero(t, overall.Bias)
}

func TestEvaluateBreakdowns(t *testing.T) {
	report := Evaluate([]database.ForecastOutcome{
		{ServiceType: "dinner", PatternSource: "index", PredictedCovers: 150, ActualCovers: 100},
		{ServiceType: "lunch", PatternSource: "synthetic", PredictedCovers: 100, ActualCovers: 100},
	})

	require.Contains(t, report.ByServiceType, "dinner")
	require.Contains(t, report.ByServiceType, "lunch")
	assert.Equal(t, 50.0, report.ByServiceType["dinner"].MAPE)
	assert.Zero(t, report.ByServiceType["lunch"].MAPE)

	require.Contains(t, report.BySource, "index")
	require.Contains(t, report.BySource, "synthetic")
	assert.Equal(t, 1, report.BySource["index"].Samples)

	assert.Equal(t, 25.0, report.Overall.MAPE)
	assert.Equal(t, 25.0, report.Overall.Bias)
}

func TestEvaluateSkipsZeroActuals(t *testing.T) {
	report := Evaluate([]database.ForecastOutcome{
		{ServiceType: "dinner", PredictedCovers: 120, ActualCovers: 0},
		{ServiceType: "dinner", PatternSource: "index", PredictedCovers: 120, ActualCovers: 120},
	})

	assert.Equal(t, 1, report.Overall.Samples)
	assert.Zero(t, report.Overall.MAPE)
}

func TestEvaluateUnknownSourceBucket(t *testing.T) {
	report := Evaluate([]database.ForecastOutcome{
		{ServiceType: "dinner", PredictedCovers: 100, ActualCovers: 100},
	})
	assert.Contains(t, report.BySource, "unknown")
}

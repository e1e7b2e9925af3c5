package forecast

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maitred/internal/models"
)

// newOfflinePredictor wires the pipeline with no external backends, so every
// prediction takes the deterministic degraded path.
func newOfflinePredictor() *Predictor {
	builder := NewContextBuilder()
	return NewPredictor(
		builder,
		NewPatternRetriever(nil, nil, builder, RetrieverOptions{}),
		NewDemandEstimator(),
		NewStaffRecommender(),
		NewReasoningEngine(nil, time.Second),
		2,
	)
}

func TestPredictSaturdayDinner(t *testing.T) {
	p := newOfflinePredictor()

	resp, err := p.Predict(context.Background(), dinnerRequest(date(2025, time.January, 18)))
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.True(t, strings.HasPrefix(resp.PredictionID, "pred_"))
	assert.Equal(t, "rest_001", resp.RestaurantID)
	assert.Equal(t, "2025-01-18", resp.ServiceDate)
	assert.Equal(t, models.ServiceDinner, resp.ServiceType)

	assert.Greater(t, resp.PredictedCovers, 0)
	assert.Equal(t, models.MethodWeightedAverage, resp.Method)
	assert.Equal(t, 3, resp.PatternsCount)
	require.Len(t, resp.Patterns, 3)
	assert.Equal(t, models.SourceSynthetic, resp.Patterns[0].Metadata.Source)

	// Synthetic similarities are drawn from [0.85, 0.95], so the mean is too.
	assert.GreaterOrEqual(t, resp.Confidence, 0.85)
	assert.LessOrEqual(t, resp.Confidence, 0.95)

	assert.NotEmpty(t, resp.Reasoning.Summary)
	assert.NotEmpty(t, resp.StaffRecommendation.Rationale)
	assert.Greater(t, resp.StaffRecommendation.Servers.Recommended, 0)
	assert.Equal(t, "Estimated from similar pattern variance, not backtested", resp.AccuracyMetrics.Note)
}

func TestPredictDeterministicNumbers(t *testing.T) {
	p := newOfflinePredictor()
	req := dinnerRequest(date(2025, time.May, 10))

	first, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	second, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.PredictedCovers, second.PredictedCovers)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, first.Patterns, second.Patterns)
	assert.NotEqual(t, first.PredictionID, second.PredictionID)
}

func TestPredictValidation(t *testing.T) {
	p := newOfflinePredictor()

	_, err := p.Predict(context.Background(), models.PredictionRequest{
		ServiceDate: date(2025, time.January, 18),
		ServiceType: models.ServiceDinner,
	})
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
	assert.ErrorIs(t, err, models.ErrMissingRestaurantID)

	_, err = p.Predict(context.Background(), models.PredictionRequest{
		RestaurantID: "rest_001",
		ServiceDate:  date(2025, time.January, 18),
		ServiceType:  "high tea",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidServiceType)

	_, err = p.Predict(context.Background(), models.PredictionRequest{
		RestaurantID: "rest_001",
		ServiceType:  models.ServiceLunch,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidServiceDate)
}

func TestPredictRange(t *testing.T) {
	p := newOfflinePredictor()

	results, err := p.PredictRange(context.Background(), dinnerRequest(date(2025, time.January, 18)), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "2025-01-18", results[0].ServiceDate)
	assert.Equal(t, "2025-01-19", results[1].ServiceDate)
	assert.Equal(t, "2025-01-20", results[2].ServiceDate)
}

func TestPredictRangeRejectsBadDays(t *testing.T) {
	p := newOfflinePredictor()

	_, err := p.PredictRange(context.Background(), dinnerRequest(date(2025, time.January, 18)), 0)
	assert.Error(t, err)

	_, err = p.PredictRange(context.Background(), models.PredictionRequest{}, 3)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

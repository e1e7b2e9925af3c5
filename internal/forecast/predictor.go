package forecast

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"maitred/internal/models"
	"maitred/internal/monitoring"
)

// Predictor runs the prediction pipeline: context construction, similarity
// retrieval, weighted aggregation, staffing translation, and narrative
// generation. Every value it touches is request-scoped; concurrent calls
// share nothing.
type Predictor struct {
	builder     *ContextBuilder
	retriever   *PatternRetriever
	estimator   *DemandEstimator
	staffing    *StaffRecommender
	reasoning   *ReasoningEngine
	concurrency int
}

// NewPredictor wires the pipeline. concurrency bounds the external-call
// fan-out of batch predictions; it does not affect single predictions.
func NewPredictor(builder *ContextBuilder, retriever *PatternRetriever, estimator *DemandEstimator, staffing *StaffRecommender, reasoning *ReasoningEngine, concurrency int) *Predictor {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Predictor{
		builder:     builder,
		retriever:   retriever,
		estimator:   estimator,
		staffing:    staffing,
		reasoning:   reasoning,
		concurrency: concurrency,
	}
}

// Predict runs one prediction. A well-formed request always yields a
// prediction: upstream degradation surfaces as lower confidence and
// synthetic provenance, not as an error.
func (p *Predictor) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	log.Printf("[PREDICT] %s %s %s", req.RestaurantID, req.ServiceDate.Format("2006-01-02"), req.ServiceType)

	svcCtx := p.builder.BuildContext(req.ServiceDate)

	patterns := p.retriever.FindSimilarPatterns(ctx, req, svcCtx)
	log.Printf("[PREDICT] %d patterns (source=%s)", len(patterns), patternsSource(patterns))

	est := p.estimator.Estimate(patterns)

	staff := p.staffing.Recommend(est.PredictedCovers, req.RestaurantID)

	reasoning := p.reasoning.GenerateReasoning(ctx, req, svcCtx, est, patterns)

	monitoring.ObservePrediction(string(req.ServiceType), est.Method, est.PredictedCovers, time.Since(started))

	return &models.PredictionResponse{
		PredictionID:        "pred_" + uuid.NewString(),
		RestaurantID:        req.RestaurantID,
		ServiceDate:         req.ServiceDate.Format("2006-01-02"),
		ServiceType:         req.ServiceType,
		PredictedCovers:     est.PredictedCovers,
		Confidence:          est.Confidence,
		Method:              est.Method,
		PatternsCount:       est.PatternsCount,
		Patterns:            patterns,
		AccuracyMetrics:     est.AccuracyMetrics,
		StaffRecommendation: staff,
		Reasoning:           reasoning,
		CreatedAt:           time.Now().UTC(),
	}, nil
}

// PredictRange predicts each of days consecutive dates starting at the
// request date. Predictions are independent, so they run in parallel under a
// bounded worker pool that caps external-call fan-out.
func (p *Predictor) PredictRange(ctx context.Context, req models.PredictionRequest, days int) ([]*models.PredictionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if days < 1 {
		return nil, fmt.Errorf("days must be at least 1")
	}

	results := make([]*models.PredictionResponse, days)
	errs := make([]error, days)
	sem := make(chan struct{}, p.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < days; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			dayReq := req
			dayReq.ServiceDate = req.ServiceDate.AddDate(0, 0, i)
			results[i], errs[i] = p.Predict(ctx, dayReq)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func patternsSource(patterns []models.Pattern) string {
	if len(patterns) == 0 {
		return "none"
	}
	return patterns[0].Metadata.Source
}

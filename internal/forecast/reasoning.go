package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"maitred/internal/models"
	"maitred/internal/monitoring"
)

// ReasoningEngine produces the human-readable explanation of a prediction
// through an LLM. It is a boundary dependency: any failure degrades to a
// deterministic default reasoning, never to an error.
type ReasoningEngine struct {
	model   llms.Model
	timeout time.Duration
}

// NewReasoningEngine builds a reasoning engine. model may be nil, in which
// case every call returns the default reasoning.
func NewReasoningEngine(model llms.Model, timeout time.Duration) *ReasoningEngine {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReasoningEngine{model: model, timeout: timeout}
}

const reasoningPrompt = `You are a restaurant operations analyst. A demand forecast was computed for %s service on %s (%s).

Predicted covers: %d
Confidence: %.2f
Context: day type %s, weather %s %d°C, events nearby: %s, holiday: %s

Similar historical service days used:
%s

Reply with a JSON object only, no prose around it:
{"summary": "<one-line explanation of the forecast for a restaurant manager>", "confidence_factors": ["<short factor>", ...]}`

type reasoningPayload struct {
	Summary           string   `json:"summary"`
	ConfidenceFactors []string `json:"confidence_factors"`
}

// GenerateReasoning asks the LLM for a narrative explanation of the
// prediction. The prediction numbers are already final: this call only
// explains them.
func (e *ReasoningEngine) GenerateReasoning(ctx context.Context, req models.PredictionRequest, svcCtx models.ServiceContext, est Estimate, patterns []models.Pattern) models.Reasoning {
	fallback := e.defaultReasoning(svcCtx, est, patterns)
	if e.model == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	completion, err := llms.GenerateFromSinglePrompt(ctx, e.model, e.buildPrompt(req, svcCtx, est, patterns),
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(400),
	)
	if err != nil {
		log.Printf("[REASONING] generation failed: %v, using default reasoning", err)
		monitoring.NarrativeFailure()
		return fallback
	}

	var payload reasoningPayload
	if err := json.Unmarshal([]byte(extractJSON(completion)), &payload); err != nil || payload.Summary == "" {
		log.Printf("[REASONING] unparseable completion, using default reasoning")
		monitoring.NarrativeFailure()
		return fallback
	}

	return models.Reasoning{
		Summary:           payload.Summary,
		PatternsUsed:      topPatterns(patterns, 3),
		ConfidenceFactors: payload.ConfidenceFactors,
	}
}

func (e *ReasoningEngine) buildPrompt(req models.PredictionRequest, svcCtx models.ServiceContext, est Estimate, patterns []models.Pattern) string {
	eventTypes := make([]string, 0, len(svcCtx.Events))
	for _, ev := range svcCtx.Events {
		eventTypes = append(eventTypes, ev.Type)
	}
	events := "none"
	if len(eventTypes) > 0 {
		events = strings.Join(eventTypes, ", ")
	}
	holiday := "none"
	if svcCtx.IsHoliday {
		holiday = svcCtx.HolidayName
	}

	var lines []string
	for _, p := range patterns {
		lines = append(lines, fmt.Sprintf("- %s: %s, %d covers (similarity %.2f, %s)",
			p.Date.Format("2006-01-02"), p.EventType, p.ActualCovers, p.Similarity, p.Metadata.Source))
	}
	if len(lines) == 0 {
		lines = []string{"- none"}
	}

	return fmt.Sprintf(reasoningPrompt,
		req.ServiceType, req.ServiceDate.Format("2006-01-02"), svcCtx.DayOfWeek,
		est.PredictedCovers,
		est.Confidence,
		svcCtx.DayType, svcCtx.Weather.Condition, svcCtx.Weather.Temperature, events, holiday,
		strings.Join(lines, "\n"),
	)
}

// defaultReasoning is the degraded narrative: deterministic, built from the
// numbers alone.
func (e *ReasoningEngine) defaultReasoning(svcCtx models.ServiceContext, est Estimate, patterns []models.Pattern) models.Reasoning {
	factors := []string{fmt.Sprintf("Based on %d similar service days", len(patterns))}
	factors = append(factors, "Day type: "+string(svcCtx.DayType))
	if len(svcCtx.Events) > 0 {
		factors = append(factors, fmt.Sprintf("%d event(s) nearby", len(svcCtx.Events)))
	}
	if svcCtx.IsHoliday {
		factors = append(factors, svcCtx.HolidayName)
	}
	if svcCtx.Weather.Condition == "Rain" || svcCtx.Weather.Condition == "Heavy Rain" {
		factors = append(factors, "Adverse weather expected")
	}

	return models.Reasoning{
		Summary: fmt.Sprintf("Forecast of %d covers at %.0f%% confidence based on %d similar service days.",
			est.PredictedCovers, est.Confidence*100, len(patterns)),
		PatternsUsed:      topPatterns(patterns, 3),
		ConfidenceFactors: factors,
	}
}

func topPatterns(patterns []models.Pattern, n int) []models.Pattern {
	if len(patterns) <= n {
		return patterns
	}
	return patterns[:n]
}

// extractJSON pulls the first JSON object out of a completion that may be
// wrapped in markdown fences or prose.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

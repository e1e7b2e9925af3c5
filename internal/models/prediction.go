package models

import (
	"errors"
	"fmt"
	"time"
)

// ServiceType identifies the meal period a prediction covers.
type ServiceType string

const (
	ServiceLunch  ServiceType = "lunch"
	ServiceDinner ServiceType = "dinner"
	ServiceBrunch ServiceType = "brunch"
)

// Validation errors are a distinct class from runtime failures so the API
// layer can map them to client errors.
var (
	ErrMissingRestaurantID = errors.New("restaurant_id is required")
	ErrInvalidServiceType  = errors.New("service_type must be one of lunch, dinner, brunch")
	ErrInvalidServiceDate  = errors.New("service_date must be a valid YYYY-MM-DD date")
)

// ParseServiceType converts a raw string into a ServiceType.
func ParseServiceType(s string) (ServiceType, error) {
	switch ServiceType(s) {
	case ServiceLunch, ServiceDinner, ServiceBrunch:
		return ServiceType(s), nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidServiceType, s)
	}
}

// PredictionRequest is the immutable input to the prediction pipeline.
type PredictionRequest struct {
	RestaurantID string      `json:"restaurant_id"`
	ServiceDate  time.Time   `json:"service_date"`
	ServiceType  ServiceType `json:"service_type"`
}

// Validate checks the request fields. It returns one of the validation
// sentinel errors above, never a server error.
func (r PredictionRequest) Validate() error {
	if r.RestaurantID == "" {
		return ErrMissingRestaurantID
	}
	if _, err := ParseServiceType(string(r.ServiceType)); err != nil {
		return err
	}
	if r.ServiceDate.IsZero() {
		return ErrInvalidServiceDate
	}
	return nil
}

// IsValidationError reports whether err belongs to the client-error class.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingRestaurantID) ||
		errors.Is(err, ErrInvalidServiceType) ||
		errors.Is(err, ErrInvalidServiceDate)
}

// Pattern is a historical or synthetic service-day observation used as a
// retrieval neighbor. Patterns are read-only once constructed.
type Pattern struct {
	PatternID    string          `json:"pattern_id"`
	Date         time.Time       `json:"date"`
	EventType    string          `json:"event_type"`
	ActualCovers int             `json:"actual_covers"`
	Similarity   float64         `json:"similarity"`
	Metadata     PatternMetadata `json:"metadata"`
}

// Pattern provenance values. "index" marks a grounded retrieval hit,
// "synthetic" marks a degraded fallback pattern.
const (
	SourceIndex     = "index"
	SourceSynthetic = "synthetic"
)

// PatternMetadata carries the contextual fields of a pattern.
type PatternMetadata struct {
	DayOfWeek string `json:"day_of_week"`
	Weather   string `json:"weather"`
	Events    int    `json:"events"`
	Holiday   string `json:"holiday,omitempty"`
	Source    string `json:"source"`
}

// AccuracyMetrics carries the uncertainty estimate attached to a prediction.
// EstimatedMAPE is a dispersion proxy derived from the retrieved patterns,
// not a backtested forecast error; the Note field says so explicitly.
type AccuracyMetrics struct {
	Method             string   `json:"method"`
	EstimatedMAPE      *float64 `json:"estimated_mape"`
	PredictionInterval *[2]int  `json:"prediction_interval,omitempty"`
	PatternsAnalyzed   int      `json:"patterns_analyzed,omitempty"`
	Note               string   `json:"note"`
}

// StaffDelta compares a recommended headcount against the usual baseline.
type StaffDelta struct {
	Recommended int `json:"recommended"`
	Usual       int `json:"usual"`
	Delta       int `json:"delta"`
}

// StaffRecommendation is the per-role staffing plan derived from the
// predicted covers.
type StaffRecommendation struct {
	Servers        StaffDelta `json:"servers"`
	Hosts          StaffDelta `json:"hosts"`
	Kitchen        StaffDelta `json:"kitchen"`
	Rationale      string     `json:"rationale"`
	CoversPerStaff float64    `json:"covers_per_staff"`
}

// Reasoning is the natural-language explanation of a prediction.
type Reasoning struct {
	Summary           string    `json:"summary"`
	PatternsUsed      []Pattern `json:"patterns_used"`
	ConfidenceFactors []string  `json:"confidence_factors"`
}

// Prediction methods.
const (
	MethodWeightedAverage = "weighted_average"
	MethodFallback        = "fallback"
)

// PredictionResponse is the full result of one pipeline invocation.
type PredictionResponse struct {
	PredictionID        string              `json:"prediction_id"`
	RestaurantID        string              `json:"restaurant_id"`
	ServiceDate         string              `json:"service_date"`
	ServiceType         ServiceType         `json:"service_type"`
	PredictedCovers     int                 `json:"predicted_covers"`
	Confidence          float64             `json:"confidence"`
	Method              string              `json:"method"`
	PatternsCount       int                 `json:"patterns_count"`
	Patterns            []Pattern           `json:"patterns"`
	AccuracyMetrics     AccuracyMetrics     `json:"accuracy_metrics"`
	StaffRecommendation StaffRecommendation `json:"staff_recommendation"`
	Reasoning           Reasoning           `json:"reasoning"`
	CreatedAt           time.Time           `json:"created_at"`
}

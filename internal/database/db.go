// Package database persists the prediction log and operator feedback. The
// prediction pipeline never reads from here; the store exists for audit and
// later accuracy review.
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL dialect
	_ "github.com/mattn/go-sqlite3"              // SQLite driver
)

// PredictionLog is one served prediction.
type PredictionLog struct {
	ID              uint      `gorm:"primary_key" json:"-"`
	PredictionID    string    `gorm:"unique_index" json:"prediction_id"`
	RestaurantID    string    `gorm:"index" json:"restaurant_id"`
	ServiceDate     string    `json:"service_date"`
	ServiceType     string    `json:"service_type"`
	PredictedCovers int       `json:"predicted_covers"`
	Confidence      float64   `json:"confidence"`
	Method          string    `json:"method"`
	PatternSource   string    `json:"pattern_source"`
	CreatedAt       time.Time `json:"created_at"`
}

// Feedback records the actual covers observed for a prediction.
type Feedback struct {
	ID           uint      `gorm:"primary_key" json:"-"`
	PredictionID string    `gorm:"index" json:"prediction_id"`
	ActualCovers int       `json:"actual_covers"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrUnknownPrediction marks feedback that references a prediction id not
// present in the log.
var ErrUnknownPrediction = errors.New("unknown prediction_id")

// Store wraps the gorm connection.
type Store struct {
	db *gorm.DB
}

// Open connects to the database and migrates the schema. driver is sqlite3
// or postgres.
func Open(driver, dsn string) (*Store, error) {
	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if err := db.AutoMigrate(&PredictionLog{}, &Feedback{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordPrediction appends one prediction to the log.
func (s *Store) RecordPrediction(entry PredictionLog) error {
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("recording prediction: %w", err)
	}
	return nil
}

// RecentPredictions returns the latest entries, newest first.
func (s *Store) RecentPredictions(limit int) ([]PredictionLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []PredictionLog
	if err := s.db.Order("created_at desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	return entries, nil
}

// ForecastOutcome pairs a served prediction with the covers actually
// observed, as reported through feedback.
type ForecastOutcome struct {
	PredictionID    string `json:"prediction_id"`
	ServiceType     string `json:"service_type"`
	Method          string `json:"method"`
	PatternSource   string `json:"pattern_source"`
	PredictedCovers int    `json:"predicted_covers"`
	ActualCovers    int    `json:"actual_covers"`
}

// Outcomes returns every prediction that has received feedback, newest first.
func (s *Store) Outcomes(limit int) ([]ForecastOutcome, error) {
	if limit <= 0 {
		limit = 500
	}
	var outcomes []ForecastOutcome
	err := s.db.Table("feedbacks").
		Select("prediction_logs.prediction_id, prediction_logs.service_type, prediction_logs.method, prediction_logs.pattern_source, prediction_logs.predicted_covers, feedbacks.actual_covers").
		Joins("JOIN prediction_logs ON prediction_logs.prediction_id = feedbacks.prediction_id").
		Order("feedbacks.created_at desc").
		Limit(limit).
		Scan(&outcomes).Error
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	return outcomes, nil
}

// RecordFeedback stores the observed covers for a prediction. The referenced
// prediction must exist in the log.
func (s *Store) RecordFeedback(fb Feedback) error {
	var count int
	if err := s.db.Model(&PredictionLog{}).Where("prediction_id = ?", fb.PredictionID).Count(&count).Error; err != nil {
		return fmt.Errorf("checking prediction: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %q", ErrUnknownPrediction, fb.PredictionID)
	}
	if err := s.db.Create(&fb).Error; err != nil {
		return fmt.Errorf("recording feedback: %w", err)
	}
	return nil
}

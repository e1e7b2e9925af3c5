// Package corpus derives the historical pattern corpus the similarity index
// is seeded from. Derivation is a one-off offline step; the serving core
// only ever reads the index.
package corpus

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"maitred/internal/forecast"
	"maitred/internal/models"
)

// PatternRecord is one (date, service_type) observation in the flat JSON
// corpus. Field names match the index payload schema.
type PatternRecord struct {
	PatternID      string         `json:"pattern_id"`
	Date           string         `json:"date"`
	DayOfWeek      string         `json:"day_of_week"`
	ServiceType    string         `json:"service_type"`
	DayType        string         `json:"day_type"`
	HotelOccupancy float64        `json:"hotel_occupancy"`
	GuestsInHouse  int            `json:"guests_in_house"`
	ActualCovers   int            `json:"actual_covers"`
	Weather        models.Weather `json:"weather"`
	Events         []models.Event `json:"events"`
	IsHoliday      bool           `json:"is_holiday"`
	HolidayName    string         `json:"holiday_name,omitempty"`
	ContextString  string         `json:"context_str"`
}

// Share of daily covers per meal period.
var serviceShares = map[string]float64{
	"breakfast": 0.35,
	"lunch":     0.25,
	"dinner":    0.40,
}

// Day-type demand multipliers.
var dayTypeFactors = map[models.DayType]float64{
	models.DayWeekend: 1.20,
	models.DayFriday:  1.15,
	models.DayWeekday: 1.00,
}

// Derive builds the corpus for every date in [start, end] and every meal
// period. The whole derivation is deterministic: re-running it yields the
// same records, and the context strings match what the retriever embeds at
// query time.
func Derive(start, end time.Time) ([]PatternRecord, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	builder := forecast.NewContextBuilder()
	serviceTypes := []string{"breakfast", "lunch", "dinner"}

	var records []PatternRecord
	seq := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		svcCtx := builder.BuildContext(d)
		occupancy, guests := forecast.OccupancyProxy(svcCtx)

		for i, st := range serviceTypes {
			seq++
			req := models.PredictionRequest{
				RestaurantID: "corpus",
				ServiceDate:  d,
				ServiceType:  models.ServiceType(st),
			}

			records = append(records, PatternRecord{
				PatternID:      fmt.Sprintf("pat_%05d", seq),
				Date:           d.Format("2006-01-02"),
				DayOfWeek:      svcCtx.DayOfWeek,
				ServiceType:    st,
				DayType:        string(svcCtx.DayType),
				HotelOccupancy: occupancy,
				GuestsInHouse:  guests,
				ActualCovers:   deriveCovers(d, i, st, svcCtx, guests),
				Weather:        svcCtx.Weather,
				Events:         svcCtx.Events,
				IsHoliday:      svcCtx.IsHoliday,
				HolidayName:    svcCtx.HolidayName,
				ContextString:  builder.BuildContextString(req, svcCtx),
			})
		}
	}
	return records, nil
}

// deriveCovers computes the covers count a service day would have seen.
// Base demand follows the in-house guests scaled by meal share and day-type
// factor, with weather and event adjustments and holiday overrides, plus a
// small deterministic jitter so the corpus is not perfectly smooth.
func deriveCovers(d time.Time, serviceIdx int, serviceType string, svcCtx models.ServiceContext, guests int) int {
	rng := rand.New(rand.NewSource(ordinalSeed(d) + int64(serviceIdx)))

	covers := float64(guests) * serviceShares[serviceType] * dayTypeFactors[svcCtx.DayType]

	covers += float64(len(svcCtx.Events)) * 15

	switch svcCtx.Weather.Condition {
	case "Rain":
		covers -= 10
	case "Heavy Rain":
		covers -= 20
	}

	if svcCtx.IsHoliday {
		switch svcCtx.HolidayName {
		case "Christmas Eve", "Christmas":
			covers = float64(40 + rng.Intn(31))
		case "New Year's Eve":
			covers = float64(180 + rng.Intn(41))
		case "New Year's Day":
			covers = float64(50 + rng.Intn(31))
		}
	}

	covers += float64(rng.Intn(21) - 10)

	n := int(math.Round(covers))
	if n < 20 {
		n = 20
	}
	return n
}

// ordinalSeed offsets the corpus jitter stream away from the context and
// fallback streams.
func ordinalSeed(d time.Time) int64 {
	const epochOrdinal = 719163 // ordinal of 1970-01-01
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return day.Unix()/86400 + epochOrdinal + 3000
}

// WriteJSON writes the corpus as a flat JSON array.
func WriteJSON(path string, records []PatternRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling corpus: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating corpus directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing corpus: %w", err)
	}
	return nil
}

// ReadJSON loads a corpus file.
func ReadJSON(path string) ([]PatternRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	var records []PatternRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing corpus: %w", err)
	}
	return records, nil
}

// IndexPayload renders a record as the index payload, including the literal
// embedded text for debugging.
func (r PatternRecord) IndexPayload() map[string]any {
	eventTypes := make([]any, 0, len(r.Events))
	for _, e := range r.Events {
		eventTypes = append(eventTypes, e.Type)
	}

	return map[string]any{
		"pattern_id":        r.PatternID,
		"date":              r.Date,
		"day_of_week":       r.DayOfWeek,
		"service_type":      r.ServiceType,
		"day_type":          r.DayType,
		"hotel_occupancy":   r.HotelOccupancy,
		"guests_in_house":   r.GuestsInHouse,
		"actual_covers":     r.ActualCovers,
		"weather_condition": r.Weather.Condition,
		"weather_temp":      r.Weather.Temperature,
		"events":            eventTypes,
		"is_holiday":        r.IsHoliday,
		"holiday_name":      r.HolidayName,
		"context_str":       r.ContextString,
	}
}

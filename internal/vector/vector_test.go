package vector

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQdrantIndexRequiresHost(t *testing.T) {
	_, err := NewQdrantIndex(Options{Collection: "fb_patterns", Dimension: 1024})
	assert.Error(t, err)
}

func TestNewTextEmbedderRequiresKey(t *testing.T) {
	_, err := NewTextEmbedder(EmbedderOptions{Model: "mistral-embed"})
	assert.Error(t, err)
}

func TestScoredPointToHit(t *testing.T) {
	point := &qdrant.ScoredPoint{
		Id:    qdrant.NewIDNum(42),
		Score: 0.913,
		Payload: qdrant.NewValueMap(map[string]any{
			"pattern_id":        "pat_00042",
			"date":              "2024-11-16",
			"service_type":      "dinner",
			"day_of_week":       "Saturday",
			"day_type":          "weekend",
			"actual_covers":     152,
			"weather_condition": "Clear",
			"events":            []any{"Concert", "Theater Show"},
			"is_holiday":        false,
		}),
	}

	hit := scoredPointToHit(point)
	assert.InDelta(t, 0.913, hit.Score, 1e-6)
	assert.Equal(t, "pat_00042", hit.PatternID)
	assert.Equal(t, "2024-11-16", hit.Date)
	assert.Equal(t, "dinner", hit.ServiceType)
	assert.Equal(t, "Saturday", hit.DayOfWeek)
	assert.Equal(t, "weekend", hit.DayType)
	assert.Equal(t, 152, hit.Covers)
	assert.Equal(t, "Clear", hit.Weather)
	assert.Equal(t, []string{"Concert", "Theater Show"}, hit.Events)
	assert.False(t, hit.IsHoliday)
}

func TestScoredPointToHitHoliday(t *testing.T) {
	point := &qdrant.ScoredPoint{
		Id:    qdrant.NewIDNum(7),
		Score: 0.88,
		Payload: qdrant.NewValueMap(map[string]any{
			"pattern_id":    "pat_00007",
			"date":          "2024-12-25",
			"service_type":  "dinner",
			"actual_covers": 55,
			"is_holiday":    true,
			"holiday_name":  "Christmas",
		}),
	}

	hit := scoredPointToHit(point)
	require.True(t, hit.IsHoliday)
	assert.Equal(t, "Christmas", hit.HolidayName)
	assert.Equal(t, 55, hit.Covers)
}

package forecast

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maitred/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateOrdinal(t *testing.T) {
	// 1970-01-01 is proleptic Gregorian ordinal 719163.
	assert.Equal(t, int64(719163), dateOrdinal(date(1970, time.January, 1)))
	assert.Equal(t, int64(719164), dateOrdinal(date(1970, time.January, 2)))
	assert.Equal(t, int64(730120), dateOrdinal(date(2000, time.January, 1)))

	// Time of day must not change the ordinal.
	noon := time.Date(2025, time.March, 10, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, dateOrdinal(date(2025, time.March, 10)), dateOrdinal(noon))
}

func TestClassifyDay(t *testing.T) {
	assert.Equal(t, models.DayWeekend, classifyDay(date(2025, time.January, 18))) // Saturday
	assert.Equal(t, models.DayWeekend, classifyDay(date(2025, time.January, 19))) // Sunday
	assert.Equal(t, models.DayFriday, classifyDay(date(2025, time.January, 17)))
	assert.Equal(t, models.DayWeekday, classifyDay(date(2025, time.January, 15))) // Wednesday
}

func TestHolidayFor(t *testing.T) {
	name, ok := holidayFor(date(2025, time.December, 25))
	assert.True(t, ok)
	assert.Equal(t, "Christmas", name)

	name, ok = holidayFor(date(2025, time.July, 14))
	assert.True(t, ok)
	assert.Equal(t, "Bastille Day", name)

	_, ok = holidayFor(date(2025, time.March, 12))
	assert.False(t, ok)
}

func TestBuildContextDeterministic(t *testing.T) {
	builder := NewContextBuilder()
	d := date(2025, time.June, 7)

	first := builder.BuildContext(d)
	second := builder.BuildContext(d)
	assert.Equal(t, first, second)
}

func TestBuildContextStringStable(t *testing.T) {
	builder := NewContextBuilder()
	req := models.PredictionRequest{
		RestaurantID: "rest_001",
		ServiceDate:  date(2025, time.January, 15),
		ServiceType:  models.ServiceDinner,
	}
	svcCtx := builder.BuildContext(req.ServiceDate)

	first := builder.BuildContextString(req, svcCtx)
	second := builder.BuildContextString(req, svcCtx)
	require.Equal(t, first, second)

	lines := strings.Split(first, "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "Date: 2025-01-15 (Wednesday)", lines[0])
	assert.Equal(t, "Service: dinner", lines[1])
	assert.Equal(t, "Day type: weekday", lines[2])
	assert.Equal(t, "Hotel occupancy: 0.78", lines[3])
	assert.Equal(t, "Guests in house: 175", lines[4])
	assert.True(t, strings.HasPrefix(lines[5], "Weather: "))
	assert.True(t, strings.HasPrefix(lines[6], "Events nearby: "))
	assert.True(t, strings.HasPrefix(lines[7], "Holiday: "))

	// The covers target must never appear in the embedded text.
	assert.NotContains(t, strings.ToLower(first), "covers")
}

func TestBuildContextStringHoliday(t *testing.T) {
	builder := NewContextBuilder()
	req := models.PredictionRequest{
		RestaurantID: "rest_001",
		ServiceDate:  date(2025, time.December, 25),
		ServiceType:  models.ServiceLunch,
	}
	svcCtx := builder.BuildContext(req.ServiceDate)

	s := builder.BuildContextString(req, svcCtx)
	assert.Contains(t, s, "Holiday: Christmas")
	// Holidays count as peak days for the occupancy proxy.
	assert.Contains(t, s, "Hotel occupancy: 0.92")
	assert.Contains(t, s, "Guests in house: 240")
}

func TestSynthesizeWeatherRanges(t *testing.T) {
	builder := NewContextBuilder()
	known := map[string]bool{
		"Clear": true, "Partly Cloudy": true, "Cloudy": true,
		"Rain": true, "Heavy Rain": true, "Snow": true,
	}

	for d := date(2025, time.January, 1); d.Year() == 2025; d = d.AddDate(0, 0, 1) {
		w := builder.synthesizeWeather(d)
		assert.True(t, known[w.Condition], "unexpected condition %q on %s", w.Condition, d.Format("2006-01-02"))

		minTemp, maxTemp := temperatureRange(d.Month())
		assert.GreaterOrEqual(t, w.Temperature, minTemp)
		assert.LessOrEqual(t, w.Temperature, maxTemp)

		assert.GreaterOrEqual(t, w.Precipitation, 0)
		assert.LessOrEqual(t, w.Precipitation, 100)
		assert.GreaterOrEqual(t, w.WindSpeed, 5)
		assert.LessOrEqual(t, w.WindSpeed, 25)

		if w.Condition == "Clear" {
			assert.Zero(t, w.Precipitation)
		}
	}
}

func TestSynthesizeEventsWellFormed(t *testing.T) {
	builder := NewContextBuilder()
	sawEvent := false

	for d := date(2025, time.March, 1); d.Month() == time.March; d = d.AddDate(0, 0, 1) {
		events := builder.synthesizeEvents(d, classifyDay(d) == models.DayWeekend)
		assert.LessOrEqual(t, len(events), 2)

		for _, e := range events {
			sawEvent = true
			assert.NotEmpty(t, e.Type)
			assert.NotEmpty(t, e.Name)
			assert.NotEmpty(t, e.StartTime)
			assert.Greater(t, e.ExpectedAttendance, 0)
			assert.Greater(t, e.DistanceKM, 0.0)
			assert.Contains(t, []string{"high", "medium"}, e.Impact)
		}
		if len(events) == 2 {
			assert.NotEqual(t, events[0].Type, events[1].Type)
			assert.Equal(t, "21:00", events[1].StartTime)
		}
	}
	assert.True(t, sawEvent, "a month of dates should produce at least one event")
}

func TestOccupancyProxy(t *testing.T) {
	occ, guests := OccupancyProxy(models.ServiceContext{DayType: models.DayWeekend})
	assert.Equal(t, 0.92, occ)
	assert.Equal(t, 240, guests)

	occ, guests = OccupancyProxy(models.ServiceContext{DayType: models.DayWeekday, IsHoliday: true})
	assert.Equal(t, 0.92, occ)
	assert.Equal(t, 240, guests)

	occ, guests = OccupancyProxy(models.ServiceContext{DayType: models.DayFriday})
	assert.Equal(t, 0.88, occ)
	assert.Equal(t, 200, guests)

	occ, guests = OccupancyProxy(models.ServiceContext{DayType: models.DayWeekday})
	assert.Equal(t, 0.78, occ)
	assert.Equal(t, 175, guests)
}

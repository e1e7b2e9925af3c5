package forecast

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"maitred/internal/models"
)

// Seed offsets keep the weather, event, and fallback-pattern streams
// independent while staying pure functions of the service date.
const (
	weatherSeedOffset = 1000
	patternSeedOffset = 2000
)

// dateOrdinal returns the proleptic Gregorian ordinal of a date, where
// 0001-01-01 is day 1. Matches the convention used when the pattern corpus
// was derived, so context synthesis stays reproducible across components.
func dateOrdinal(d time.Time) int64 {
	const epochOrdinal = 719163 // ordinal of 1970-01-01
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return day.Unix()/86400 + epochOrdinal
}

// holidayTable maps fixed (month, day) pairs to display names.
var holidayTable = map[[2]int]string{
	{12, 24}: "Christmas Eve",
	{12, 25}: "Christmas",
	{12, 31}: "New Year's Eve",
	{1, 1}:   "New Year's Day",
	{7, 14}:  "Bastille Day",
	{11, 11}: "Armistice Day",
	{5, 1}:   "Labor Day",
}

// weatherConditions is a fixed categorical distribution sampled by
// cumulative probability.
var weatherConditions = []struct {
	condition string
	prob      float64
}{
	{"Clear", 0.40},
	{"Partly Cloudy", 0.30},
	{"Cloudy", 0.15},
	{"Rain", 0.10},
	{"Heavy Rain", 0.03},
	{"Snow", 0.02},
}

// eventCatalog holds the event archetypes the synthesizer draws from.
var eventCatalog = []struct {
	eventType  string
	names      []string
	minAttend  int
	maxAttend  int
	minDistKM  float64
	maxDistKM  float64
	impact     string
	startsLate bool
}{
	{
		eventType: "Concert",
		names:     []string{"Coldplay", "Taylor Swift", "Ed Sheeran", "Beyonce"},
		minAttend: 30000, maxAttend: 60000,
		minDistKM: 1.5, maxDistKM: 5.0,
		impact: "high", startsLate: true,
	},
	{
		eventType: "Sports Match",
		names:     []string{"PSG vs Marseille", "France vs England", "Champions League Final"},
		minAttend: 40000, maxAttend: 80000,
		minDistKM: 2.0, maxDistKM: 6.0,
		impact: "high",
	},
	{
		eventType: "Theater Show",
		names:     []string{"Hamilton", "Les Miserables", "Phantom of the Opera"},
		minAttend: 1000, maxAttend: 3000,
		minDistKM: 0.5, maxDistKM: 2.0,
		impact: "medium", startsLate: true,
	},
	{
		eventType: "Conference",
		names:     []string{"Tech Summit", "Marketing Expo", "Healthcare Forum"},
		minAttend: 500, maxAttend: 2000,
		minDistKM: 0.2, maxDistKM: 1.5,
		impact: "medium",
	},
}

// ContextBuilder turns a service date into a structured situational context
// and into the canonical text string used for embedding. It carries no state
// between calls.
type ContextBuilder struct{}

// NewContextBuilder returns a ContextBuilder.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{}
}

// BuildContext derives the service context for a date. Same date, same
// context: the weather and event draws are seeded on the date's ordinal.
func (b *ContextBuilder) BuildContext(serviceDate time.Time) models.ServiceContext {
	dayType := classifyDay(serviceDate)
	holidayName, isHoliday := holidayFor(serviceDate)

	return models.ServiceContext{
		DayOfWeek:   serviceDate.Weekday().String(),
		DayType:     dayType,
		IsHoliday:   isHoliday,
		HolidayName: holidayName,
		Weather:     b.synthesizeWeather(serviceDate),
		Events:      b.synthesizeEvents(serviceDate, dayType == models.DayWeekend),
	}
}

func classifyDay(d time.Time) models.DayType {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return models.DayWeekend
	case time.Friday:
		return models.DayFriday
	default:
		return models.DayWeekday
	}
}

func holidayFor(d time.Time) (string, bool) {
	name, ok := holidayTable[[2]int{int(d.Month()), d.Day()}]
	return name, ok
}

func (b *ContextBuilder) synthesizeWeather(d time.Time) models.Weather {
	rng := rand.New(rand.NewSource(dateOrdinal(d) + weatherSeedOffset))

	draw := rng.Float64()
	condition := weatherConditions[0].condition
	cumulative := 0.0
	for _, wc := range weatherConditions {
		cumulative += wc.prob
		if draw <= cumulative {
			condition = wc.condition
			break
		}
	}

	minTemp, maxTemp := temperatureRange(d.Month())
	temperature := randInt(rng, minTemp, maxTemp)

	var precipitation int
	switch condition {
	case "Clear":
		precipitation = 0
	case "Partly Cloudy":
		precipitation = randInt(rng, 0, 10)
	case "Cloudy":
		precipitation = randInt(rng, 10, 30)
	case "Rain":
		precipitation = randInt(rng, 40, 70)
	case "Heavy Rain":
		precipitation = randInt(rng, 70, 100)
	case "Snow":
		precipitation = randInt(rng, 30, 60)
	}

	return models.Weather{
		Condition:     condition,
		Temperature:   temperature,
		Precipitation: precipitation,
		WindSpeed:     randInt(rng, 5, 25),
	}
}

func temperatureRange(m time.Month) (int, int) {
	switch m {
	case time.December, time.January, time.February:
		return 0, 10
	case time.March, time.April, time.May:
		return 10, 20
	case time.June, time.July, time.August:
		return 20, 30
	default:
		return 10, 20
	}
}

func (b *ContextBuilder) synthesizeEvents(d time.Time, isWeekend bool) []models.Event {
	rng := rand.New(rand.NewSource(dateOrdinal(d)))

	probability := 0.3
	if isWeekend {
		probability = 0.7
	}
	if rng.Float64() >= probability {
		return nil
	}

	first := rng.Intn(len(eventCatalog))
	events := []models.Event{drawEvent(rng, first, "")}

	// Weekends occasionally host a second, distinct-type event.
	if isWeekend && rng.Float64() < 0.2 {
		second := rng.Intn(len(eventCatalog) - 1)
		if second >= first {
			second++
		}
		events = append(events, drawEvent(rng, second, "21:00"))
	}

	return events
}

func drawEvent(rng *rand.Rand, idx int, startOverride string) models.Event {
	archetype := eventCatalog[idx]

	start := "19:00"
	if archetype.startsLate {
		start = "20:00"
	}
	if startOverride != "" {
		start = startOverride
	}

	return models.Event{
		Type:               archetype.eventType,
		Name:               archetype.names[rng.Intn(len(archetype.names))],
		DistanceKM:         round1(archetype.minDistKM + rng.Float64()*(archetype.maxDistKM-archetype.minDistKM)),
		ExpectedAttendance: randInt(rng, archetype.minAttend, archetype.maxAttend),
		StartTime:          start,
		Impact:             archetype.impact,
	}
}

// OccupancyProxy returns the hotel occupancy and in-house guest proxies for
// a context. The values mirror the distribution the
// pattern corpus was derived with, keeping query embeddings compatible with
// indexed pattern embeddings.
func OccupancyProxy(svcCtx models.ServiceContext) (float64, int) {
	if svcCtx.DayType == models.DayWeekend || svcCtx.IsHoliday {
		return 0.92, 240
	}
	if svcCtx.DayType == models.DayFriday {
		return 0.88, 200
	}
	return 0.78, 175
}

// BuildContextString renders the canonical multi-line embedding input. The
// format must stay byte-for-byte stable between index-population time and
// query time, and it deliberately excludes covers so the target never leaks
// into the similarity signal.
func (b *ContextBuilder) BuildContextString(req models.PredictionRequest, svcCtx models.ServiceContext) string {
	eventTypes := make([]string, 0, len(svcCtx.Events))
	for _, e := range svcCtx.Events {
		eventTypes = append(eventTypes, e.Type)
	}
	eventsStr := "None"
	if len(eventTypes) > 0 {
		eventsStr = strings.Join(eventTypes, ", ")
	}

	holiday := "None"
	if svcCtx.IsHoliday {
		holiday = svcCtx.HolidayName
	}

	occupancy, guests := OccupancyProxy(svcCtx)

	return fmt.Sprintf(`Date: %s (%s)
Service: %s
Day type: %s
Hotel occupancy: %.2f
Guests in house: %d
Weather: %s, %d°C
Events nearby: %s
Holiday: %s`,
		req.ServiceDate.Format("2006-01-02"), svcCtx.DayOfWeek,
		req.ServiceType,
		svcCtx.DayType,
		occupancy,
		guests,
		svcCtx.Weather.Condition, svcCtx.Weather.Temperature,
		eventsStr,
		holiday,
	)
}

// randInt draws an integer in [min, max], both ends inclusive.
func randInt(rng *rand.Rand, min, max int) int {
	return min + rng.Intn(max-min+1)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

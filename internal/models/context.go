package models

// DayType classifies a service date by its demand profile.
type DayType string

const (
	DayWeekday DayType = "weekday"
	DayFriday  DayType = "friday"
	DayWeekend DayType = "weekend"
)

// Weather is the synthesized forecast for a service date.
type Weather struct {
	Condition     string `json:"condition"`
	Temperature   int    `json:"temperature"`
	Precipitation int    `json:"precipitation"`
	WindSpeed     int    `json:"wind_speed"`
}

// Event is a nearby happening that can move restaurant demand.
type Event struct {
	Type               string  `json:"type"`
	Name               string  `json:"name"`
	DistanceKM         float64 `json:"distance_km"`
	ExpectedAttendance int     `json:"expected_attendance"`
	StartTime          string  `json:"start_time"`
	Impact             string  `json:"impact"`
}

// ServiceContext is the per-request situational context a prediction is made
// in. It is a deterministic function of the service date: the same date
// always produces the same context.
type ServiceContext struct {
	DayOfWeek   string  `json:"day_of_week"`
	DayType     DayType `json:"day_type"`
	IsHoliday   bool    `json:"is_holiday"`
	HolidayName string  `json:"holiday_name,omitempty"`
	Weather     Weather `json:"weather"`
	Events      []Event `json:"events"`
}

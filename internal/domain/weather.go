package domain

import "time"

// Weather is the current conditions shown by the dashboard widget.
type Weather struct {
	City         string    `json:"city"`
	TemperatureC int       `json:"temperatureC"`
	WindSpeedKmh int       `json:"windSpeedKmh"`
	Code         int       `json:"code"`
	Condition    string    `json:"condition"`
	FetchedAt    time.Time `json:"fetchedAt"`
}

// Condition buckets, using WMO weather interpretation codes.
const (
	ConditionClear  = "clear"
	ConditionCloudy = "cloudy"
	ConditionRain   = "rain"
	ConditionSnow   = "snow"
)

// DescribeWeatherCode buckets a WMO code into a coarse condition.
func DescribeWeatherCode(code int) string {
	switch {
	case code == 0:
		return ConditionClear
	case code <= 3:
		return ConditionCloudy
	case code <= 67:
		return ConditionRain
	case code <= 77:
		return ConditionSnow
	default:
		return ConditionCloudy
	}
}

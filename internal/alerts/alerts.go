// Package alerts derives structured weather alerts from merged forecast
// bundles: hourly threshold alerts (rain, heat, wind), storm indicators, and
// unusual-phenomenon detection from weather descriptions. It produces data,
// not text; presentation belongs to the bulletin layer.
package alerts

import (
	"strings"
	"time"

	"github.com/weatherpro/weather-ensemble/internal/weather"
)

// Severity grades an alert.
type Severity string

const (
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Type names the condition an alert was raised for.
type Type string

const (
	TypeHeavyRain Type = "heavy_rain"
	TypeHeat      Type = "heat"
	TypeWind      Type = "wind"
	TypeStorm     Type = "storm"
	TypeUnusual   Type = "unusual"
)

// Hourly thresholds, in mm/h, °C and m/s.
const (
	RainModerate    = 10.0
	RainSevere      = 30.0
	HeatModerate    = 35.0
	HeatIndexSevere = 38.0
	WindModerate    = 10.0
	WindSevere      = 17.0
)

// Storm indicators: gale-force wind, abnormally low pressure, extreme daily rain.
const (
	StormWind      = 17.0  // m/s
	StormPressure  = 990.0 // hPa
	StormDailyRain = 100.0 // mm/day
)

// Alert is one detected condition at one point in time.
type Alert struct {
	TS       time.Time `json:"ts"`
	Type     Type      `json:"type"`
	Severity Severity  `json:"severity"`
	Metric   string    `json:"metric,omitempty"`
	Value    float64   `json:"value,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// unusualPhenomena are description keywords worth alerting on, matched
// case-insensitively against source weather descriptions (Vietnamese feeds).
var unusualPhenomena = []string{
	"sấm sét",
	"dông tố",
	"mưa đá",
	"lốc xoáy",
	"mưa axit",
	"sương mù dày đặc",
	"nhiệt độ bất thường",
	"áp suất bất thường",
	"hiện tượng kỳ lạ",
	"động đất",
	"sóng thần",
	"núi lửa",
	"bão cát",
	"khói bụi",
	"bầu trời xuất hiện vật lạ",
	"ánh sáng bất thường",
	"mưa thiên thạch",
	"sương muối",
	"hạn hán cực đoan",
	"cháy rừng",
}

// Detect runs every detector against one merged bundle.
func Detect(bundle weather.Bundle) []Alert {
	var out []Alert
	out = append(out, DetectHourly(bundle.Hourly)...)
	out = append(out, DetectStorm(bundle.Current, bundle.Daily)...)
	out = append(out, DetectUnusual(bundle.Current, bundle.Hourly, bundle.Daily)...)
	return out
}

// DetectHourly scans a normalized hourly series for heavy rain, heat and
// strong wind. Heat severity uses the heat-index proxy when humidity is
// available, so a humid 36°C hour can out-alert a dry 37°C one.
func DetectHourly(hourly weather.Series) []Alert {
	var out []Alert
	for i := range hourly {
		r := &hourly[i]

		if r.Rain != nil {
			switch {
			case *r.Rain >= RainSevere:
				out = append(out, Alert{TS: r.TS, Type: TypeHeavyRain, Severity: SeveritySevere, Metric: "rain", Value: *r.Rain})
			case *r.Rain >= RainModerate:
				out = append(out, Alert{TS: r.TS, Type: TypeHeavyRain, Severity: SeverityModerate, Metric: "rain", Value: *r.Rain})
			}
		}

		if r.Temp != nil {
			if *r.Temp >= HeatModerate {
				out = append(out, Alert{TS: r.TS, Type: TypeHeat, Severity: SeverityModerate, Metric: "temp", Value: *r.Temp})
			}
			feels := *r.Temp
			if r.Humidity != nil {
				feels = HeatIndexProxy(*r.Temp, *r.Humidity)
			}
			if feels >= HeatIndexSevere {
				out = append(out, Alert{TS: r.TS, Type: TypeHeat, Severity: SeveritySevere, Metric: "heat_index", Value: feels})
			}
		}

		if r.WindSpeed != nil {
			switch {
			case *r.WindSpeed >= WindSevere:
				out = append(out, Alert{TS: r.TS, Type: TypeWind, Severity: SeveritySevere, Metric: "wind_speed", Value: *r.WindSpeed})
			case *r.WindSpeed >= WindModerate:
				out = append(out, Alert{TS: r.TS, Type: TypeWind, Severity: SeverityModerate, Metric: "wind_speed", Value: *r.WindSpeed})
			}
		}
	}
	return out
}

// DetectStorm checks current conditions and the daily forecast for storm
// indicators: gale-force wind right now, abnormally low pressure, or a
// forecast day with extreme rainfall.
func DetectStorm(current *weather.Record, daily weather.Series) []Alert {
	var out []Alert

	if current != nil {
		if current.WindSpeed != nil && *current.WindSpeed >= StormWind {
			out = append(out, Alert{TS: current.TS, Type: TypeStorm, Severity: SeveritySevere, Metric: "wind_speed", Value: *current.WindSpeed})
		}
		if current.Pressure != nil && *current.Pressure <= StormPressure {
			out = append(out, Alert{TS: current.TS, Type: TypeStorm, Severity: SeveritySevere, Metric: "pressure", Value: *current.Pressure})
		}
	}

	for i := range daily {
		if daily[i].Rain != nil && *daily[i].Rain >= StormDailyRain {
			out = append(out, Alert{TS: daily[i].TS, Type: TypeStorm, Severity: SeveritySevere, Metric: "rain", Value: *daily[i].Rain})
		}
	}
	return out
}

// DetectUnusual scans weather descriptions across the bundle for the
// unusual-phenomenon keyword list.
func DetectUnusual(current *weather.Record, hourly, daily weather.Series) []Alert {
	var out []Alert

	if current != nil {
		out = append(out, unusualIn(current.TS, current.WeatherDesc)...)
	}
	for i := range hourly {
		out = append(out, unusualIn(hourly[i].TS, hourly[i].WeatherDesc)...)
	}
	for i := range daily {
		out = append(out, unusualIn(daily[i].TS, daily[i].WeatherDesc)...)
	}
	return out
}

func unusualIn(ts time.Time, desc string) []Alert {
	if desc == "" {
		return nil
	}
	lowered := strings.ToLower(desc)

	var out []Alert
	for _, phenomenon := range unusualPhenomena {
		if strings.Contains(lowered, phenomenon) {
			out = append(out, Alert{TS: ts, Type: TypeUnusual, Severity: SeveritySevere, Detail: phenomenon})
		}
	}
	return out
}

// HeatIndexProxy is a simple perceived-temperature estimate combining
// temperature (°C) and relative humidity (%).
func HeatIndexProxy(temp, humidity float64) float64 {
	return temp + 0.33*humidity/100*temp - 4
}
